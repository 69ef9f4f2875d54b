// Package session is the host-side boundary of the mock VM.
//
// A Session owns one Store, its snapshot manager and the queues that live
// inside it. Test setup populates the session through the setters
// (SetEntryPoint, SetCaller, SetCallContractResults, ...); the code under
// test reads it back through the contract-side calls (EntryPoint, Caller,
// CallContract, Log, Event, ...).
//
// # Control Markers
//
// Writing any bytes to MetadataSpace under one of the marker keys does not
// store anything. It triggers a transition instead:
//
//	reset                 clear the store and drop any snapshot
//	begin_transaction     capture a snapshot (replacing any earlier one)
//	rollback_transaction  restore the snapshot, if any
//	commit_transaction    drop the snapshot, if any
//
// The Reset/BeginTransaction/RollbackTransaction/CommitTransaction setters
// go through the same marker path.
//
// # Reserved Keys
//
// Host metadata lives in MetadataSpace under fixed keys (KeyEntryPoint,
// KeyCaller, ...). Head info and the authority list use separate keys
// (head_info and authority) so setting one never clobbers the other.
package session
