package llm

import (
	"strings"

	"github.com/joseph-ayodele/scavenger/constants"
)

// EventKeys are the exact keys requested from the model for ExtractedEvent.
var EventKeys = []string{
	"title", "host", "campus", "date", "startTime", "endTime",
	"place", "food", "foodCategory", "details", "other",
}

// LegacyKeys are the exact keys requested for FlyerExtraction.
var LegacyKeys = []string{
	"title", "building", "room", "startIso", "endIso",
	"foodDescription", "estimatedPortions", "notes",
}

const eventExample = `{"title":"MIBS Community Service Night","host":"MIBS","campus":"BYU","date":"2026-02-11","startTime":"19:00","endTime":"20:30","place":"TNRB 170","food":"treats","foodCategory":"refreshments","details":"Treats will be provided. Come join MIBS and The Policy Project!","other":null}`

const legacyExample = `{"title":"Pizza Social","building":"TMCB","room":"210","startIso":"2026-02-17T17:00:00-07:00","endIso":"2026-02-17T19:00:00-07:00","foodDescription":"Pizza and soda","estimatedPortions":20,"notes":null}`

// BuildEventPrompt composes the instruction for ExtractedEvent: JSON only,
// exact keys, null instead of guesses, date/time/enum formatting and one example.
func BuildEventPrompt(campusTimezone string) string {
	tz := campusTZ(campusTimezone)
	lines := []string{
		"Extract the event information from this flyer image.",
		"Return ONLY valid JSON (no markdown, no code fences, no extra text).",
		"",
		"If something is unclear, set it to null (do not guess).",
		"Use campus timezone: " + tz + ".",
		"",
		"Return these keys EXACTLY:",
		strings.Join(EventKeys, ", "),
		"",
		"Formatting rules:",
		`- date: "YYYY-MM-DD"`,
		`- startTime/endTime: "HH:MM" in 24-hour time`,
		"- foodCategory must be one of: " + strings.Join(constants.FoodCategoriesAsStrings(), ", ") + " (or null)",
		`- If flyer says "treats" or "refreshments", put that in food and use foodCategory "refreshments".`,
		"- host: club/org/department hosting the event (if shown).",
		`- campus: campus name or abbreviation (e.g. "BYU") if obvious; else null.`,
		"- other: an object with any extra useful fields, or null.",
		"",
		"Example:",
		eventExample,
	}
	return strings.Join(lines, "\n")
}

// BuildLegacyPrompt composes the instruction for FlyerExtraction.
func BuildLegacyPrompt(campusTimezone string) string {
	tz := campusTZ(campusTimezone)
	lines := []string{
		"You are extracting structured event data from a university flyer image.",
		"Return ONLY valid JSON. Do not include any markdown or commentary.",
		"",
		"Rules:",
		"- If a field is missing/unclear, set it to null (do not guess).",
		"- Times must be ISO 8601 strings in the campus timezone: " + tz + ".",
		"- Use these JSON keys exactly: " + strings.Join(LegacyKeys, ", "),
		"- estimatedPortions must be a number or null.",
		"",
		"Example JSON:",
		legacyExample,
	}
	return strings.Join(lines, "\n")
}

func campusTZ(tz string) string {
	if tz = strings.TrimSpace(tz); tz != "" {
		return tz
	}
	return constants.DefaultCampusTimezone
}
