// Package store keeps mounted widget instances and the diagnostic feed of
// submission attempts.
//
// The main components are:
//
//   - [Store]: Interface defining instance and feed operations
//   - [MemoryStore]: In-memory implementation with bounded capacity
//   - [Event]: JSON representation of one submission attempt
//
// Subscribers receive events via channels with non-blocking sends, so slow
// subscribers miss events rather than stall submissions.
package store
