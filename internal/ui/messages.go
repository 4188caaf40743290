package ui

import (
	"vidbatch/internal/pipeline"
	"vidbatch/internal/progress"
)

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

// batchDoneMsg is sent once RunBatch returns.
type batchDoneMsg struct {
	Summary pipeline.Summary
	Err     error
}
