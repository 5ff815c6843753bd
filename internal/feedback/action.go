// Package feedback reconciles uncertain automatic classification with
// explicit, asynchronously-obtained user decisions.
package feedback

// Action is the closed set of notification responses. Anything outside
// the known button set is ActionOpenApp: the surrounding application
// should open and show the in-app prompt instead.
type Action int

// Known notification actions.
const (
	ActionOpenApp Action = iota
	ActionWorthIt
	ActionMaybe
	ActionNotWorthIt
)

// Notification action identifiers on the wire.
const (
	actionIDWorthIt    = "worth_it"
	actionIDMaybe      = "maybe"
	actionIDNotWorthIt = "not_worth_it"
)

// ParseAction maps a raw action identifier to the closed action set.
func ParseAction(id string) Action {
	switch id {
	case actionIDWorthIt:
		return ActionWorthIt
	case actionIDMaybe:
		return ActionMaybe
	case actionIDNotWorthIt:
		return ActionNotWorthIt
	default:
		return ActionOpenApp
	}
}

// Rating maps an action to its satisfaction rating. The second return is
// false for ActionOpenApp, which carries no rating.
func (a Action) Rating() (int, bool) {
	switch a {
	case ActionWorthIt:
		return 5, true
	case ActionMaybe:
		return 3, true
	case ActionNotWorthIt:
		return 1, true
	default:
		return 0, false
	}
}

func (a Action) String() string {
	switch a {
	case ActionWorthIt:
		return actionIDWorthIt
	case ActionMaybe:
		return actionIDMaybe
	case ActionNotWorthIt:
		return actionIDNotWorthIt
	default:
		return "open_app"
	}
}
