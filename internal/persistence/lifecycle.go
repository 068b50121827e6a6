package persistence

import "github.com/conduit-lang/metamodel/applib"

// NotifyLoaded calls the Loaded callback of pojo, if it has one.
func NotifyLoaded(pojo any) {
	if cb, ok := pojo.(applib.Loaded); ok {
		cb.Loaded()
	}
}

// NotifyPersisting calls the Persisting callback of pojo, if it has one.
func NotifyPersisting(pojo any) {
	if cb, ok := pojo.(applib.Persisting); ok {
		cb.Persisting()
	}
}

// NotifyRemoving calls the Removing callback of pojo, if it has one.
func NotifyRemoving(pojo any) {
	if cb, ok := pojo.(applib.Removing); ok {
		cb.Removing()
	}
}
