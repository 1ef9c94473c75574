package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
)

// DrawCSVHeader is the column order written by WriteDrawsCSV
var DrawCSVHeader = []string{
	"drawId", "status", "trigger", "drawTime", "winnerWallet", "winnerRank",
	"prizeLamports", "prizeSol", "txSignature", "errorMessage", "recordId", "runId",
}

// WriteDrawsCSV writes one row per draw for manual reconciliation
func WriteDrawsCSV(w io.Writer, draws []*models.Draw) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(DrawCSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, d := range draws {
		row := []string{
			d.DrawID,
			string(d.Status),
			string(d.Trigger),
			d.DrawTime.UTC().Format(time.RFC3339),
			d.WinnerWallet,
			strconv.Itoa(d.WinnerRank),
			strconv.FormatInt(d.PrizeLamports, 10),
			strconv.FormatFloat(d.PrizeAmount, 'f', -1, 64),
			d.TxSignature,
			d.ErrorMessage,
			d.ID.Hex(),
			d.RunID,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", d.DrawID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
