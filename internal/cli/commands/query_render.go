package commands

import (
	"fmt"

	"github.com/leapstack-labs/s2http/internal/cli/output"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
)

// renderCursor drains the cursor's result set into the renderer.
func renderCursor(r *output.Renderer, cur *dbapi.Cursor) error {
	desc := cur.Description()
	cols := make([]string, len(desc))
	for i, d := range desc {
		cols[i] = d.Name
	}

	rows, err := cur.FetchAll()
	if err != nil {
		return err
	}
	res := output.Result{Columns: cols, Rows: make([][]any, len(rows))}
	for i, row := range rows {
		res.Rows[i] = row
	}
	return r.RenderResult(res)
}

type execOutput struct {
	RowsAffected int64 `json:"rowsAffected"`
}

func renderExecResult(r *output.Renderer, affected int64) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(execOutput{RowsAffected: affected})
	}
	noun := "rows"
	if affected == 1 {
		noun = "row"
	}
	r.Success(fmt.Sprintf("Query OK, %d %s affected", affected, noun))
	return nil
}
