// Package memory holds process-local implementations of the repositories.
// It backs the memory storage driver and serves as the fake in tests.
package memory

// Store groups one repository per collection.
type Store struct {
	Devices     *DeviceRepository
	Logins      *LoginRepository
	History     *HistoryRepository
	Users       *UserRepository
	ResetTokens *ResetTokenRepository
	Sessions    *SessionStore
}

func NewStore() *Store {
	return &Store{
		Devices:     NewDeviceRepository(),
		Logins:      NewLoginRepository(),
		History:     NewHistoryRepository(),
		Users:       NewUserRepository(),
		ResetTokens: NewResetTokenRepository(),
		Sessions:    NewSessionStore(),
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
