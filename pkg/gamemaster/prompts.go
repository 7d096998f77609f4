package gamemaster

import "fmt"

// packetPreamble renders a contextPacket into the common framing every
// Game Master prompt opens with, mirroring pkg/scenario's
// scenarioPreamble.
func packetPreamble(pc *contextPacket) string {
	return fmt.Sprintf("Scenario: %s\nTheater: %s\nAdversary: %s\nCurrent phase: %s\n\n"+
		"Standing priorities (JIPTL):\n%s\nFriendly/hostile order of battle:\n%s\nSpace assets:\n%s\nMAAP excerpt:\n%s\nPrevious day mission status:\n%s",
		pc.Scenario.Name, pc.Scenario.Theater, pc.Scenario.Adversary, pc.Phase,
		pc.PrioritiesSummary, pc.ORBATSummary, pc.SpaceAssetSummary, pc.MAAPExcerpt, pc.PrevDaySummary)
}

const atoSystemPrompt = `You are an air operations center combat plans officer. Write an Air Tasking Order ` +
	`(ATO) memorandum for the given day, with mission packages tracing to the current JIPTL's priorities. Each ` +
	`package should name its missions with callsign, domain, platform, waypoints, time windows, targets, support ` +
	`requirements, and any space needs (capability type, priority, time window). Use formal tasking-order ` +
	`structure so the text is machine-parseable.`

func atoUserPrompt(pc *contextPacket, atoDay int) string {
	return fmt.Sprintf("%s\n\nWrite the ATO for day %d of the campaign.", packetPreamble(pc), atoDay)
}

const maapSystemPrompt = `You are an air operations planning staff officer. Write a Master Air Attack Plan (MAAP) ` +
	`memorandum for the given day, translating the current JIPTL's prioritized targets into mission package ` +
	`assignments with a short numbered priority list the next ATO will task against.`

func maapUserPrompt(pc *contextPacket, atoDay int) string {
	return fmt.Sprintf("%s\n\nWrite the day-%d MAAP memorandum.", packetPreamble(pc), atoDay)
}

const bdaSystemPrompt = `You are a combat assessment officer. Write a Battle Damage Assessment (BDA) ` +
	`memorandum for the given day's strikes, summarizing target status, restrike recommendations, and follow-on ` +
	`priority changes in formal tasking-order structure.`

func bdaUserPrompt(pc *contextPacket, atoDay int) string {
	return fmt.Sprintf("%s\n\nWrite the day-%d BDA memorandum for the strikes tasked the previous day.", packetPreamble(pc), atoDay)
}

const bdaExtractSystemPrompt = `Extract per-target battle damage assessments from the BDA memorandum as strict ` +
	`JSON: for each target, its damage percentage (0-100), whether it is functionally killed, and whether a ` +
	`restrike is needed.`

func bdaExtractUserPrompt(bdaText string) string {
	return "BDA memorandum:\n\n" + bdaText
}

const injectSystemPrompt = `You are a scenario control cell writer. Generate one Master Scenario Events List ` +
	`(MSEL) inject as strict JSON: a title, a one-sentence description, its operational impact, an hour-of-day ` +
	`(0-23) it fires at, and an inject type (one of FRICTION, INTEL, CRISIS, SPACE, INFORMATION, ACTION, ` +
	`DECISION_POINT, CONTINGENCY).`

func injectUserPrompt(pc *contextPacket, atoDay int) string {
	return fmt.Sprintf("%s\n\nGenerate one inject for day %d of the campaign.", packetPreamble(pc), atoDay)
}
