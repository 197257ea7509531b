package bluetooth

// ChangeKind tells a callback whether the address was seen for the first time.
type ChangeKind int

// ChangeKind ...
const (
	ChangeNew ChangeKind = iota + 1
	ChangeUpdated
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNew:
		return "new"
	case ChangeUpdated:
		return "updated"
	}
	return "unknown"
}

// Callback handles advertisements delivered by the dispatcher.
type Callback func(a *Advertisement, change ChangeKind)

// UnavailableCallback is called with the address of a device that stopped advertising.
type UnavailableCallback func(addr string)

// CancelFunc removes a registration. Calling it more than once is harmless.
type CancelFunc func()

// A FlowStarter starts the discovery flow of an integration for a device.
type FlowStarter interface {
	StartFlow(domain string, a *Advertisement)
}

// FlowStarterFunc is an adapter to allow the use of ordinary functions as FlowStarters.
type FlowStarterFunc func(domain string, a *Advertisement)

// StartFlow calls f(domain, a).
func (f FlowStarterFunc) StartFlow(domain string, a *Advertisement) {
	f(domain, a)
}
