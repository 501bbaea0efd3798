package classify

import (
	"strings"

	"github.com/gamewell/collector/internal/model"
)

// Game is the classifier's view of a known title.
type Game struct {
	Name     string
	Category model.Category
}

// Classify maps a raw running-process name to a known game and category.
// Matching is case-insensitive: exact executable match first, then substring
// match. Unrecognized executables fall back to the trimmed process name with
// the unknown category so sessions are never dropped for lack of a table
// entry.
func Classify(executable string) Game {
	name := strings.ToLower(strings.TrimSpace(executable))
	if name == "" {
		return Game{Name: "Unknown", Category: model.CategoryUnknown}
	}

	if g, ok := exactMatch[name]; ok {
		return g
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.game
		}
	}

	return Game{Name: displayName(executable), Category: model.CategoryUnknown}
}

// displayName strips the extension and title-cases a raw executable name so
// unknown games still render reasonably on the dashboard.
func displayName(executable string) string {
	name := strings.TrimSpace(executable)
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	if name == "" {
		return "Unknown"
	}
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var exactMatch = map[string]Game{
	// Competitive
	"fortniteclient-win64-shipping.exe": {"Fortnite", model.CategoryCompetitive},
	"fortnite.exe":                      {"Fortnite", model.CategoryCompetitive},
	"valorant.exe":                      {"Valorant", model.CategoryCompetitive},
	"valorant-win64-shipping.exe":       {"Valorant", model.CategoryCompetitive},
	"league of legends.exe":             {"League of Legends", model.CategoryCompetitive},
	"leagueclient.exe":                  {"League of Legends", model.CategoryCompetitive},
	"rocketleague.exe":                  {"Rocket League", model.CategoryCompetitive},
	"csgo.exe":                          {"Counter-Strike", model.CategoryCompetitive},
	"cs2.exe":                           {"Counter-Strike 2", model.CategoryCompetitive},
	"overwatch.exe":                     {"Overwatch 2", model.CategoryCompetitive},
	"r5apex.exe":                        {"Apex Legends", model.CategoryCompetitive},
	"brawlhalla.exe":                    {"Brawlhalla", model.CategoryCompetitive},
	"dota2.exe":                         {"Dota 2", model.CategoryCompetitive},
	"fifa23.exe":                        {"FIFA 23", model.CategoryCompetitive},
	"fc24.exe":                          {"EA Sports FC 24", model.CategoryCompetitive},

	// Creative
	"minecraft.exe":          {"Minecraft", model.CategoryCreative},
	"minecraftlauncher.exe":  {"Minecraft", model.CategoryCreative},
	"javaw.exe":              {"Minecraft", model.CategoryCreative},
	"terraria.exe":           {"Terraria", model.CategoryCreative},
	"scrap mechanic.exe":     {"Scrap Mechanic", model.CategoryCreative},
	"kerbal space program":   {"Kerbal Space Program", model.CategoryCreative},
	"cities.exe":             {"Cities: Skylines", model.CategoryCreative},
	"planetcoaster.exe":      {"Planet Coaster", model.CategoryCreative},
	"trackmania.exe":         {"Trackmania", model.CategoryCreative},
	"dreamsuniverse.exe":     {"Dreams", model.CategoryCreative},
	"spore.exe":              {"Spore", model.CategoryCreative},
	"factorio.exe":           {"Factorio", model.CategoryCreative},
	"satisfactorygame.exe":   {"Satisfactory", model.CategoryCreative},
	"stardewvalley.exe":      {"Stardew Valley", model.CategoryCasual},
	"stardew valley.exe":     {"Stardew Valley", model.CategoryCasual},

	// Casual
	"slimerancher.exe":  {"Slime Rancher", model.CategoryCasual},
	"fallguys_client.exe": {"Fall Guys", model.CategoryCasual},
	"subnautica.exe":    {"Subnautica", model.CategoryCasual},
	"hollow_knight.exe": {"Hollow Knight", model.CategoryCasual},
	"celeste.exe":       {"Celeste", model.CategoryCasual},
	"cuphead.exe":       {"Cuphead", model.CategoryCasual},
	"untitledgoosegame.exe": {"Untitled Goose Game", model.CategoryCasual},
	"oriwotw.exe":       {"Ori and the Will of the Wisps", model.CategoryCasual},
	"solitaire.exe":     {"Solitaire", model.CategoryCasual},

	// Social
	"robloxplayerbeta.exe": {"Roblox", model.CategorySocial},
	"roblox.exe":           {"Roblox", model.CategorySocial},
	"among us.exe":         {"Among Us", model.CategorySocial},
	"amongus.exe":          {"Among Us", model.CategorySocial},
	"vrchat.exe":           {"VRChat", model.CategorySocial},
	"gartic phone.exe":     {"Gartic Phone", model.CategorySocial},
	"animaljamclassic.exe": {"Animal Jam", model.CategorySocial},
	"clubpenguin.exe":      {"Club Penguin", model.CategorySocial},
	"seaofthieves.exe":     {"Sea of Thieves", model.CategorySocial},
}

// Ordered longer/more-specific first so e.g. "fortniteclient" wins over a
// hypothetical shorter keyword.
var substringMatches = []struct {
	keyword string
	game    Game
}{
	{"fortniteclient", Game{"Fortnite", model.CategoryCompetitive}},
	{"fortnite", Game{"Fortnite", model.CategoryCompetitive}},
	{"stardewvalley", Game{"Stardew Valley", model.CategoryCasual}},
	{"stardew", Game{"Stardew Valley", model.CategoryCasual}},
	{"minecraft", Game{"Minecraft", model.CategoryCreative}},
	{"rocketleague", Game{"Rocket League", model.CategoryCompetitive}},
	{"valorant", Game{"Valorant", model.CategoryCompetitive}},
	{"overwatch", Game{"Overwatch 2", model.CategoryCompetitive}},
	{"roblox", Game{"Roblox", model.CategorySocial}},
	{"amongus", Game{"Among Us", model.CategorySocial}},
	{"among us", Game{"Among Us", model.CategorySocial}},
	{"vrchat", Game{"VRChat", model.CategorySocial}},
	{"terraria", Game{"Terraria", model.CategoryCreative}},
	{"factorio", Game{"Factorio", model.CategoryCreative}},
	{"league", Game{"League of Legends", model.CategoryCompetitive}},
	{"apex", Game{"Apex Legends", model.CategoryCompetitive}},
	{"fifa", Game{"FIFA", model.CategoryCompetitive}},
	{"sims", Game{"The Sims 4", model.CategoryCreative}},
	{"celeste", Game{"Celeste", model.CategoryCasual}},
	{"subnautica", Game{"Subnautica", model.CategoryCasual}},
}
