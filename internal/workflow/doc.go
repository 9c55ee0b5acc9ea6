// Package workflow orchestrates queue items through the pipeline stages.
// The manager polls the queue for the oldest runnable item, moves it into the
// matching stage's processing status, runs the handler, and persists either
// the stage's done status or a failure. Items entering the queue from local
// files start mid-pipeline and are picked up by the appropriate stage.
package workflow
