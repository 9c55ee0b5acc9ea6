// Package watch monitors a drop folder and feeds new files into the queue
// at the pipeline stage their file type implies.
package watch
