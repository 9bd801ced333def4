package voice

// Command maps a spoken keyword to an action and a reply.
type Command struct {
	ID       string `json:"id"`
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Response string `json:"response"`
}

// Match is the result of resolving a transcript.
type Match struct {
	Command  Command `json:"command"`
	Response string  `json:"response"`
}

// DefaultCommands is the starter set seeded into an empty table.
var DefaultCommands = []Command{
	{ID: "vc-lights-on", Keyword: "turn on the lights", Category: "lighting", Action: "lights_on", Response: "Turning the lights on."},
	{ID: "vc-lights-off", Keyword: "turn off the lights", Category: "lighting", Action: "lights_off", Response: "Turning the lights off."},
	{ID: "vc-lights", Keyword: "lights", Category: "lighting", Action: "lights_status", Response: "Here are your lights."},
	{ID: "vc-lock", Keyword: "lock the door", Category: "security", Action: "lock", Response: "Locking the door."},
	{ID: "vc-away", Keyword: "i'm leaving", Category: "security", Action: "mode_away", Response: "Goodbye. Auto-lock is starting."},
	{ID: "vc-energy", Keyword: "energy usage", Category: "energy", Action: "energy_report", Response: "Here is today's energy usage."},
}
