package setup

// State is a step of the install.
type State int

const (
	ValidatingInputs State = iota
	CheckingOS
	InstallingDependencies
	FetchingInstaller
	FetchingUpdates
	Installing
	WaitingForReady
	Finalizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case ValidatingInputs:
		return "ValidatingInputs"
	case CheckingOS:
		return "CheckingOs"
	case InstallingDependencies:
		return "InstallingDependencies"
	case FetchingInstaller:
		return "FetchingInstaller"
	case FetchingUpdates:
		return "FetchingUpdates"
	case Installing:
		return "Installing"
	case WaitingForReady:
		return "WaitingForReady"
	case Finalizing:
		return "Finalizing"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}
