// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"fmt"
	"io"

	"github.com/sugawarayuuta/sonnet"
)

// WriteTable writes results as fixed-width columns with a heading.
func WriteTable(w io.Writer, results []Result) error {
	if _, err := fmt.Fprintf(w, "%-16s %-16s %-9s %-9s %-9s %-11s %-11s %-9s %-9s\n",
		"name", "workload", "nthreads", "iters", "items", "time(us)", "op_count", "op(us)", "exhausted"); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%-16s %-16s %-9d %-9d %-9d %-11d %-11d %-9.6f %-9d\n",
			r.Name, r.Workload, r.Threads, r.Iterations, r.Items,
			r.Elapsed.Microseconds(), r.Ops, r.PerOp(), r.Exhausted); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes results as a JSON array followed by a newline.
func WriteJSON(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	data, err := sonnet.Marshal(results)
	if err != nil {
		return fmt.Errorf("bench: encode results: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
