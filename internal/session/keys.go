package session

// Reserved metadata keys.
const (
	KeyEntryPoint            = "entry_point"
	KeyContractArguments     = "contract_arguments"
	KeyContractID            = "contract_id"
	KeyHeadInfo              = "head_info"
	KeyAuthority             = "authority"
	KeyLastIrreversibleBlock = "last_irreversible_block"
	KeyCaller                = "caller"
	KeyTransaction           = "transaction"
	KeyBlock                 = "block"
	KeyCallContractResults   = "call_contract_results"
	KeyLogs                  = "logs"
	KeyEvents                = "events"
)

// Control marker keys.
const (
	MarkerReset               = "reset"
	MarkerBeginTransaction    = "begin_transaction"
	MarkerRollbackTransaction = "rollback_transaction"
	MarkerCommitTransaction   = "commit_transaction"
)

// IsMarker reports whether key is a control marker.
func IsMarker(key string) bool {
	switch key {
	case MarkerReset, MarkerBeginTransaction, MarkerRollbackTransaction, MarkerCommitTransaction:
		return true
	}
	return false
}

// ReservedKeys lists the reserved metadata keys in a stable order.
func ReservedKeys() []string {
	return []string{
		KeyEntryPoint, KeyContractArguments, KeyContractID, KeyHeadInfo,
		KeyAuthority, KeyLastIrreversibleBlock, KeyCaller, KeyTransaction,
		KeyBlock, KeyCallContractResults, KeyLogs, KeyEvents,
	}
}
