//go:generate go run go.uber.org/mock/mockgen -source=identity.go -destination=../../mocks/mock_identity.go -package=mocks

package identity

// Provider: who the local participant is. Presenter rights are read here,
// before any presenter-only store call is issued.
type Provider interface {
	CurrentUserID() string
	DisplayName() string
	IsPresenter() bool
}

// Static: fixed identity, for clients that authenticate once at startup
type Static struct {
	UserID    string
	Name      string
	Presenter bool
}

func (s Static) CurrentUserID() string { return s.UserID }

// DisplayName falls back to the user id when no name is set
func (s Static) DisplayName() string {
	if s.Name == "" {
		return s.UserID
	}
	return s.Name
}

func (s Static) IsPresenter() bool { return s.Presenter }
