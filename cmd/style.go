package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/kalinova-sec/secledger/ledger"
)

func printBanner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Sec", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("Ledger", pterm.FgDarkGray.ToStyle()),
	).Render()
}

func severityStyle(severity string) string {
	switch severity {
	case ledger.SeverityCritical:
		return pterm.BgRed.Sprint(pterm.FgWhite.Sprint(severity))
	case ledger.SeverityHigh:
		return pterm.LightRed(severity)
	case ledger.SeverityMedium:
		return pterm.LightYellow(severity)
	case ledger.SeverityLow:
		return pterm.LightGreen(severity)
	default:
		return severity
	}
}

// formatDetails renders a details map as sorted key=value pairs.
func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}

func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

func auditTable(views []ledger.EventView) pterm.TableData {
	data := pterm.TableData{{"Block", "Time", "Type", "Severity", "Details", "Hash"}}
	for _, v := range views {
		data = append(data, []string{
			fmt.Sprint(v.BlockIndex),
			v.Timestamp.Format(time.DateTime),
			v.EventType,
			severityStyle(v.Severity),
			formatDetails(v.Details),
			shortHash(v.BlockHash),
		})
	}
	return data
}

func printAudit(views []ledger.EventView) error {
	pterm.DefaultSection.Println("Audit trail")
	if len(views) == 0 {
		pterm.Info.Println("No events recorded")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(auditTable(views)).Render()
}

func printVerification(err error, what string) {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	if err != nil {
		pbox.WithTitle(pterm.LightRed("|" + strings.ToUpper(what) + "|")).WithTitleTopCenter().Println(pterm.LightRed("INVALID: " + err.Error()))
		return
	}
	pbox.WithTitle(pterm.LightGreen("|" + strings.ToUpper(what) + "|")).WithTitleTopCenter().Println(pterm.LightGreen("VALID"))
}
