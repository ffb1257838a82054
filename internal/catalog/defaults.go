package catalog

import "time"

// Defaults returns the built-in catalog, synchronized with the published
// wiki schedule. Written to the store on first run when no document exists.
func Defaults(loc *time.Location) []RaidEvent {
	at := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, loc)
	}
	events := []RaidEvent{
		{
			Name:           "Pumpkinmon",
			Category:       CategoryData,
			Location:       "Shibuya",
			Reward:         "Digital Hazard Coin",
			Triggers:       []TriggerTime{{19, 30}, {21, 30}},
			RecurrenceDays: 1,
			Anchor:         at(2025, time.August, 18, 19, 30),
			Image:          "https://dsrworldwiki.com/assets-opt/digimons/pumpmon-800.0d183a820368.avif",
		},
		{
			Name:           "Datamon",
			Category:       CategoryVirus,
			Location:       "Odaiba Entrance",
			Reward:         "Digital Hazard Coin",
			Triggers:       []TriggerTime{{20, 40}},
			RecurrenceDays: 1,
			Anchor:         at(2025, time.August, 18, 20, 40),
			Image:          "https://dsrworldwiki.com/assets-opt/digimons/datamon-800.0616d90fb62c.avif",
		},
		{
			Name:           "Gotsumon",
			Category:       CategoryData,
			Location:       "Shibuya",
			Reward:         "Digital Hazard Coin",
			Triggers:       []TriggerTime{{23, 0}, {1, 0}},
			RecurrenceDays: 1,
			Anchor:         at(2025, time.August, 18, 23, 0),
			Image:          "https://dsrworldwiki.com/assets-opt/digimons/gottsumon-800.ca5003fad519.avif",
		},
		{
			Name:           "BlackSeraphimon",
			Category:       CategoryVirus,
			Location:       "??? (Spiral Mountain -> Apocalymon Map)",
			Reward:         "Evil Digital Hazard Coin",
			Triggers:       []TriggerTime{{16, 0}},
			RecurrenceDays: 5,
			Anchor:         at(2025, time.August, 23, 16, 0),
			Image:          "https://dsrworldwiki.com/assets-opt/digimons/blackseraphimon-800.4544de9758c5.avif",
		},
		{
			Name:           "Omegamon",
			Category:       CategoryVaccine,
			Location:       "Valley Of Darkness",
			Reward:         "Sacred Codes",
			Triggers:       []TriggerTime{{14, 30}},
			RecurrenceDays: 6,
			Anchor:         at(2025, time.August, 24, 14, 30),
			Image:          "https://dsrworldwiki.com/assets-opt/digimons/omegamon-800.7a602017a50c.avif",
		},
		{
			Name:           "Ophanimon",
			Category:       CategoryVaccine,
			Location:       "??? (Spiral Mountain -> Apocalymon Map)",
			Reward:         "Evil Digital Hazard Coin",
			Triggers:       []TriggerTime{{16, 0}},
			RecurrenceDays: 12,
			Anchor:         at(2025, time.August, 30, 16, 0),
			Image:          "https://dsrworldwiki.com/assets-opt/digimons/ophanimon-800.8dffa51532ee.avif",
		},
		{
			Name:           "Megidramon",
			Category:       CategoryVirus,
			Location:       "Valley Of Darkness",
			Reward:         "Sacred Codes",
			Triggers:       []TriggerTime{{16, 0}},
			RecurrenceDays: 13,
			Anchor:         at(2025, time.August, 31, 16, 0),
			Image:          "https://dsrworldwiki.com/assets-opt/digimons/megidramon-800.ffeaccae5bb5.avif",
		},
	}
	now := time.Now().In(loc)
	for i := range events {
		events[i].applyDefaults(now)
	}
	return events
}
