// Package console bridges the terminal and the message protocol.
//
// Reader turns newline-terminated console lines into inbound parse messages on a
// queue. Every line is read on the scheduler's worker pool, so a pending read never
// holds up other tasks and is abandoned when the reader is cancelled.
//
// Sink renders outbound print messages as "--> <text>" and is the single place
// where malformed application output is rejected.
package console
