// Package memory persists conversation history between runs of the memory
// agent. Pick an implementation at wiring time:
//
//   - InMemoryStore keeps histories for the life of the process.
//   - TranscriptStore reads and writes a human readable log file
//     ("You: ..." / "AI: ..." lines).
//   - KVStore stores msgpack encoded messages in a kv.Store (badger).
package memory
