package api

import (
	"github.com/JaimeStill/scribe/internal/documents"
	"github.com/JaimeStill/scribe/internal/workflow"
)

// Domain holds the systems the API exposes.
type Domain struct {
	Session *workflow.Session
	Intake  *documents.Intake
}

// NewDomain creates the workflow session and upload intake from the API
// runtime. The session is closed when the lifecycle shuts down.
func NewDomain(runtime *Runtime) *Domain {
	session := workflow.New(&workflow.Runtime{
		Backend:       runtime.Backend,
		Poller:        &runtime.Config.Poller,
		Storage:       runtime.Storage,
		DownloadKinds: runtime.Config.Backend.DownloadKinds,
		Logger:        runtime.Logger,
	})

	runtime.Lifecycle.OnShutdown(session.Close)

	return &Domain{
		Session: session,
		Intake:  documents.NewIntake(&runtime.Config.Upload, runtime.Logger),
	}
}
