package config

// KeyMappings defines all configurable key bindings
type KeyMappings struct {
	// Deals
	AddDeal       string `yaml:"add_deal"`
	EditDeal      string `yaml:"edit_deal"`
	DeleteDeal    string `yaml:"delete_deal"`
	MoveDealLeft  string `yaml:"move_deal_left"`
	MoveDealRight string `yaml:"move_deal_right"`
	ViewDeal      string `yaml:"view_deal"`

	// Selection and bulk actions
	ToggleSelect   string `yaml:"toggle_select"`
	BulkMarkWon    string `yaml:"bulk_mark_won"`
	BulkMarkLost   string `yaml:"bulk_mark_lost"`
	BulkDelete     string `yaml:"bulk_delete"`
	ClearSelection string `yaml:"clear_selection"`

	// Search
	StartSearch string `yaml:"start_search"`

	// Notifications
	ToggleInbox string `yaml:"toggle_inbox"`
	MarkRead    string `yaml:"mark_read"`
	MarkAllRead string `yaml:"mark_all_read"`

	// Forms
	SaveForm string `yaml:"save_form"`

	// Navigation
	PrevStage string `yaml:"prev_stage"`
	NextStage string `yaml:"next_stage"`
	PrevDeal  string `yaml:"prev_deal"`
	NextDeal  string `yaml:"next_deal"`

	// Other
	Refresh  string `yaml:"refresh"`
	ShowHelp string `yaml:"show_help"`
	Quit     string `yaml:"quit"`
}

// DefaultKeyMappings returns the default key mappings
func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		// Deals
		AddDeal:       "a",
		EditDeal:      "e",
		DeleteDeal:    "d",
		MoveDealLeft:  "H",
		MoveDealRight: "L",
		ViewDeal:      "enter",

		// Selection and bulk actions
		ToggleSelect:   " ",
		BulkMarkWon:    "W",
		BulkMarkLost:   "X",
		BulkDelete:     "D",
		ClearSelection: "esc",

		// Search
		StartSearch: "/",

		// Notifications
		ToggleInbox: "n",
		MarkRead:    "m",
		MarkAllRead: "M",

		// Forms
		SaveForm: "ctrl+s",

		// Navigation
		PrevStage: "h",
		NextStage: "l",
		PrevDeal:  "k",
		NextDeal:  "j",

		// Other
		Refresh:  "r",
		ShowHelp: "?",
		Quit:     "q",
	}
}

// applyDefaults fills in missing key mappings with defaults
func (k *KeyMappings) applyDefaults() {
	defaults := DefaultKeyMappings()

	if k.AddDeal == "" {
		k.AddDeal = defaults.AddDeal
	}
	if k.EditDeal == "" {
		k.EditDeal = defaults.EditDeal
	}
	if k.DeleteDeal == "" {
		k.DeleteDeal = defaults.DeleteDeal
	}
	if k.MoveDealLeft == "" {
		k.MoveDealLeft = defaults.MoveDealLeft
	}
	if k.MoveDealRight == "" {
		k.MoveDealRight = defaults.MoveDealRight
	}
	if k.ViewDeal == "" {
		k.ViewDeal = defaults.ViewDeal
	}
	if k.ToggleSelect == "" {
		k.ToggleSelect = defaults.ToggleSelect
	}
	if k.BulkMarkWon == "" {
		k.BulkMarkWon = defaults.BulkMarkWon
	}
	if k.BulkMarkLost == "" {
		k.BulkMarkLost = defaults.BulkMarkLost
	}
	if k.BulkDelete == "" {
		k.BulkDelete = defaults.BulkDelete
	}
	if k.ClearSelection == "" {
		k.ClearSelection = defaults.ClearSelection
	}
	if k.StartSearch == "" {
		k.StartSearch = defaults.StartSearch
	}
	if k.ToggleInbox == "" {
		k.ToggleInbox = defaults.ToggleInbox
	}
	if k.MarkRead == "" {
		k.MarkRead = defaults.MarkRead
	}
	if k.MarkAllRead == "" {
		k.MarkAllRead = defaults.MarkAllRead
	}
	if k.SaveForm == "" {
		k.SaveForm = defaults.SaveForm
	}
	if k.PrevStage == "" {
		k.PrevStage = defaults.PrevStage
	}
	if k.NextStage == "" {
		k.NextStage = defaults.NextStage
	}
	if k.PrevDeal == "" {
		k.PrevDeal = defaults.PrevDeal
	}
	if k.NextDeal == "" {
		k.NextDeal = defaults.NextDeal
	}
	if k.Refresh == "" {
		k.Refresh = defaults.Refresh
	}
	if k.ShowHelp == "" {
		k.ShowHelp = defaults.ShowHelp
	}
	if k.Quit == "" {
		k.Quit = defaults.Quit
	}
}
