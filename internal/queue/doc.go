// Package queue persists pipeline work items in SQLite and tracks their
// progression through the download, extraction, transcription, translation,
// and synthesis stages. Items enqueued from local files enter part-way
// through the lifecycle so already-completed stages are skipped.
package queue
