package introspect

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metamodel/examples/todo"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/specloader"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
	"github.com/conduit-lang/metamodel/internal/persistence/memstore"
)

func loadTodo(t *testing.T) *specloader.Loader {
	t.Helper()
	l := specloader.New(specloader.Options{Store: memstore.New(nil)})
	report, err := l.LoadAll(todo.Types()...)
	require.NoError(t, err)
	require.False(t, report.HasFailures(), "%v", report.Failures())
	return l
}

func byName(t *testing.T, l *specloader.Loader, name string) *spec.Specification {
	t.Helper()
	s, ok := l.SpecificationByName(name)
	require.True(t, ok, name)
	return s
}

func TestSummarize(t *testing.T) {
	l := loadTodo(t)
	summaries := Summarize([]*spec.Specification{
		byName(t, l, "todo.Item"),
		byName(t, l, "todo.ItemSummary"),
	})

	require.Len(t, summaries, 2)
	assert.Equal(t, TypeSummary{
		Name:        "todo.Item",
		DisplayName: summaries[0].DisplayName,
		Sort:        "entity",
		Properties:  8,
		Collections: 1,
		Actions:     4,
	}, summaries[0])
	assert.NotEmpty(t, summaries[0].DisplayName)
	assert.Equal(t, "view_model", summaries[1].Sort)
	assert.Equal(t, 3, summaries[1].Properties)
}

func TestDescribe(t *testing.T) {
	d := Describe(byName(t, loadTodo(t), "todo.Item"))

	assert.Equal(t, "todo.Item", d.Name)
	assert.Equal(t, "todo.Item", d.GoType)
	assert.NotEmpty(t, d.Facets)

	members := map[string]MemberDescription{}
	for _, m := range d.Members {
		members[m.ID] = m
	}
	require.Len(t, members, 13)

	due := members["Due"]
	assert.Equal(t, "property", due.Feature)
	assert.Equal(t, "Due date", due.DisplayName)
	assert.Equal(t, "*applib.LocalDate", due.Type)
	assert.Equal(t, "todo.Item#Due", due.Identifier)

	deps := members["DependsOn"]
	assert.Equal(t, "collection", deps.Feature)
	assert.Equal(t, "[]*todo.Item", deps.Type)

	reschedule := members["Reschedule"]
	assert.Equal(t, "action", reschedule.Feature)
	require.Len(t, reschedule.Parameters, 1)
	assert.Equal(t, "New due date", reschedule.Parameters[0].DisplayName)
	assert.Equal(t, "applib.LocalDate", reschedule.Parameters[0].Type)

	archive := members["Archive"]
	assert.Equal(t, "todo.ItemArchive", archive.MixedInFrom)
	assert.Empty(t, reschedule.MixedInFrom)
}

func TestFacets_SortedWithoutFacetKey(t *testing.T) {
	item := byName(t, loadTodo(t), "todo.Item")
	due, _ := item.Property("Due")

	facets := Facets(due.Holder())
	require.NotEmpty(t, facets)
	for i, f := range facets {
		assert.NotContains(t, f.Attributes, "facet")
		if i > 0 {
			assert.LessOrEqual(t, facets[i-1].Type, f.Type)
		}
	}
	assert.Nil(t, Facets(nil))
}

func TestObject(t *testing.T) {
	l := loadTodo(t)
	item := byName(t, l, "todo.Item")
	ctx := context.Background()

	pojo := &todo.Item{Description: "Pay rent", Category: todo.CategoryWork, Done: true}
	mo := spec.NewManagedObject(item, pojo)
	ef, ok := item.Facet(spec.EntityFacetType).(spec.EntityFacet)
	require.True(t, ok)
	require.NoError(t, ef.Persist(ctx, pojo))

	d, err := Object(mo)
	require.NoError(t, err)
	assert.Equal(t, "todo.Item", d.Type)
	assert.Equal(t, pojo.ID, d.Identifier)
	assert.Equal(t, "Pay rent (done)", d.Title)
	assert.Equal(t, "attached", d.State)
	assert.Equal(t, "Pay rent", d.Properties["Description"])
	assert.Equal(t, "work", d.Properties["Category"])
	assert.Equal(t, "true", d.Properties["Done"])
	assert.NotContains(t, d.Properties, "DependsOn")

	value, err := Object(spec.NewManagedObject(byName(t, l, "todo.Category"), todo.CategoryHome))
	require.NoError(t, err)
	assert.Equal(t, "home", value.Title)
	assert.Empty(t, value.Properties)

	_, err = Object(spec.Unspecified())
	assert.Error(t, err)
}

func TestFailures(t *testing.T) {
	r := validation.NewReport()
	item := byName(t, loadTodo(t), "todo.Item")
	r.OnFailure(item.Identifier(), "something is off")

	assert.Equal(t, []FailureDescription{{Identifier: "todo.Item", Message: "something is off"}}, Failures(r))
}

func TestDescriptions_Encode(t *testing.T) {
	d := Describe(byName(t, loadTodo(t), "todo.ItemSummary"))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, "todo.ItemSummary", fromJSON["name"])
	assert.Equal(t, "view_model", fromJSON["sort"])

	data, err = yaml.Marshal(d)
	require.NoError(t, err)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, "todo.ItemSummary", fromYAML["name"])
	assert.Contains(t, fromYAML, "members")
}
