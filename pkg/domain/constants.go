package domain

// Virtual function names handled in-process by the execution engine.
const (
	FuncAskUser         = "AskUser"
	FuncConfirmWithUser = "ConfirmWithUser"
	FuncPresentOptions  = "PresentOptions"
	FuncExtractEntityID = "ExtractEntityId"
)

// IsVirtualFunction reports whether name is one of the engine's built-in
// virtual functions. These are available to every domain without being
// declared in its function registry.
func IsVirtualFunction(name string) bool {
	switch name {
	case FuncAskUser, FuncConfirmWithUser, FuncPresentOptions, FuncExtractEntityID:
		return true
	}
	return false
}

// Reserved runtime namespace. These names are seeded into the session data
// bag at plan start and are the only names ${token} templates may resolve.
// Entity and template names never collide with them.
const (
	ReservedTodayISO    = "todayISO"
	ReservedSafeDateEnd = "safeDateEnd"
	ReservedDomainID    = "domainId"
	ReservedEndpoint    = "apiEndpoint"
)

// ReservedNames lists the reserved runtime namespace in a stable order.
func ReservedNames() []string {
	return []string{ReservedTodayISO, ReservedSafeDateEnd, ReservedDomainID, ReservedEndpoint}
}

// IsReservedName reports whether name belongs to the reserved namespace.
func IsReservedName(name string) bool {
	switch name {
	case ReservedTodayISO, ReservedSafeDateEnd, ReservedDomainID, ReservedEndpoint:
		return true
	}
	return false
}
