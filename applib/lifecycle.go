package applib

// Lifecycle callbacks invoked by the object manager. The methods are never
// exposed as actions.
type (
	// Created is called once after the object manager instantiates a type.
	Created interface{ Created() }
	// Loaded is called after an entity is loaded from its store.
	Loaded interface{ Loaded() }
	// Persisting is called before a transient entity is first stored.
	Persisting interface{ Persisting() }
	// Removing is called before an entity is deleted.
	Removing interface{ Removing() }
)

// LifecycleCallbacks lists the callback method names reserved by the framework.
var LifecycleCallbacks = []string{
	"Init",
	"Created",
	"Loaded",
	"Persisting",
	"Persisted",
	"Updating",
	"Updated",
	"Removing",
	"Removed",
}
