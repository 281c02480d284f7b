package payment

const (
	msgTransactionSuccessful = "Transaction executed successfully"
	msgTransactionPending    = "Transaction scheduled for future execution"
	msgInvalidAmount         = "Amount must be a positive integer"
	msgCurrencyMismatch      = "Currency mismatch between transaction and account"
	msgInsufficientFunds     = "Insufficient funds in debit account"
	msgSameAccount           = "Debit and credit accounts cannot be the same"
	msgAccountNotFound       = "Account not found"
	msgMalformedInstruction  = "Malformed instruction: unable to parse keywords"
	msgInvalidDateFormat     = "Invalid date format"
)
