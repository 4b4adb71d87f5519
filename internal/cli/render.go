package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samvad-hq/triage-kg-client/internal/app"
	"github.com/samvad-hq/triage-kg-client/internal/transcript"
	"github.com/samvad-hq/triage-kg-client/pkg/kgapi"
	"github.com/tidwall/gjson"
)

const (
	outputJSON  = "json"
	outputTable = "table"

	maxCellWidth = 80
)

type tableRenderer func(w io.Writer, body json.RawMessage) error

// renderBody prints a backend body. --select narrows it first; a narrowed
// body is always tabulated as key/value pairs.
func (c *cli) renderBody(body json.RawMessage, table tableRenderer) error {
	body, err := c.selectBody(body)
	if err != nil {
		return err
	}
	if c.flags.output != outputTable {
		return writeJSON(c.out, body)
	}
	if c.flags.selectPath != "" {
		table = renderKeyValues
	}
	return table(c.out, body)
}

func (c *cli) selectBody(body json.RawMessage) (json.RawMessage, error) {
	if c.flags.selectPath == "" {
		return body, nil
	}
	res := gjson.GetBytes(body, c.flags.selectPath)
	if !res.Exists() {
		return nil, fmt.Errorf("select %q matched nothing", c.flags.selectPath)
	}
	return json.RawMessage(res.Raw), nil
}

// renderValue marshals v and prints it like a backend body.
func (c *cli) renderValue(v any, table func(io.Writer) error) error {
	if c.flags.output == outputTable && c.flags.selectPath == "" {
		return table(c.out)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return c.renderBody(raw, renderKeyValues)
}

func writeJSON(w io.Writer, body json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		buf.Reset()
		buf.Write(body)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

func renderKeyValues(w io.Writer, body json.RawMessage) error {
	res := gjson.ParseBytes(body)
	if !res.IsObject() && !res.IsArray() {
		_, err := fmt.Fprintln(w, res.String())
		return err
	}

	var rows [][]string
	res.ForEach(func(key, value gjson.Result) bool {
		rows = append(rows, []string{key.String(), cell(value)})
		return true
	})
	headers := []string{"Field", "Value"}
	if res.IsArray() {
		// ForEach keys are empty for arrays.
		for i := range rows {
			rows[i][0] = strconv.Itoa(i)
		}
		headers = []string{"#", "Value"}
	}
	return renderTable(w, headers, rows)
}

func renderGraph(w io.Writer, body json.RawMessage) error {
	graph, err := kgapi.Decode[kgapi.KnowledgeGraph](body)
	if err != nil {
		return renderKeyValues(w, body)
	}

	nodes := make([][]string, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		nodes = append(nodes, []string{n.ID, n.Label, n.Group, n.Type})
	}
	fmt.Fprintf(w, "Nodes (%d)\n", len(graph.Nodes))
	if err := renderTable(w, []string{"ID", "Label", "Group", "Type"}, nodes); err != nil {
		return err
	}

	links := make([][]string, 0, len(graph.Links))
	for _, l := range graph.Links {
		links = append(links, []string{l.Source, l.Target, l.RelationshipType, strconv.Itoa(l.Value)})
	}
	fmt.Fprintf(w, "Links (%d)\n", len(graph.Links))
	return renderTable(w, []string{"Source", "Target", "Relationship", "Value"}, links)
}

func renderSearch(w io.Writer, body json.RawMessage) error {
	results, err := kgapi.Decode[kgapi.SearchResults](body)
	if err != nil {
		return renderKeyValues(w, body)
	}
	if results.Error != "" {
		return fmt.Errorf("search failed: %s", results.Error)
	}

	rows := make([][]string, 0, len(results.Results))
	for _, hit := range results.Results {
		rows = append(rows, []string{hit.Type, hit.Name, cell(gjson.ParseBytes(hit.Details))})
	}
	return renderTable(w, []string{"Type", "Name", "Details"}, rows)
}

type probeView struct {
	OK    bool            `json:"ok"`
	Body  json.RawMessage `json:"body,omitempty"`
	Error string          `json:"error,omitempty"`
}

type statusView struct {
	Profile string    `json:"profile"`
	Health  probeView `json:"health"`
	Neo4j   probeView `json:"neo4j"`
	Graph   probeView `json:"knowledge_graph"`
}

func newProbeView(r app.Result) probeView {
	if r.Err != nil {
		return probeView{Error: r.Err.Error()}
	}
	return probeView{OK: true, Body: r.Body}
}

// graphSummary replaces a full graph body with its node and link counts.
func graphSummary(body json.RawMessage) json.RawMessage {
	res := gjson.ParseBytes(body)
	if !res.Get("nodes").IsArray() {
		return body
	}
	return json.RawMessage(fmt.Sprintf(`{"nodes":%d,"links":%d}`, res.Get("nodes.#").Int(), res.Get("links.#").Int()))
}

func (c *cli) renderStatus(report app.StatusReport) error {
	view := statusView{
		Profile: report.Profile,
		Health:  newProbeView(report.Health),
		Neo4j:   newProbeView(report.Neo4j),
		Graph:   newProbeView(report.Graph),
	}
	if view.Graph.OK {
		view.Graph.Body = graphSummary(view.Graph.Body)
	}

	return c.renderValue(view, func(w io.Writer) error {
		rows := make([][]string, 0, 3)
		for _, p := range []struct {
			name string
			view probeView
		}{
			{"health", view.Health},
			{"neo4j", view.Neo4j},
			{"knowledge_graph", view.Graph},
		} {
			detail := p.view.Error
			if p.view.OK {
				detail = cell(gjson.ParseBytes(p.view.Body))
			}
			rows = append(rows, []string{p.name, strconv.FormatBool(p.view.OK), detail})
		}
		fmt.Fprintf(w, "Profile: %s\n", view.Profile)
		return renderTable(w, []string{"Probe", "OK", "Detail"}, rows)
	})
}

func (c *cli) renderHistory(entries []transcript.Entry) error {
	if entries == nil {
		entries = []transcript.Entry{}
	}
	return c.renderValue(entries, func(w io.Writer) error {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			answer := e.Error
			if answer == "" {
				if reply := gjson.GetBytes(e.Answer, "response"); reply.Exists() {
					answer = truncate(reply.String())
				} else {
					answer = cell(gjson.ParseBytes(e.Answer))
				}
			}
			rows = append(rows, []string{
				e.CreatedAt.Local().Format(time.DateTime),
				e.Profile,
				truncate(e.Question),
				answer,
			})
		}
		return renderTable(w, []string{"Time", "Profile", "Question", "Answer"}, rows)
	})
}

type exportView struct {
	Delivered int    `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

func (c *cli) renderExport(delivered int, err error) error {
	view := exportView{Delivered: delivered}
	if err != nil {
		view.Error = err.Error()
	}
	return c.renderValue(view, func(w io.Writer) error {
		return renderTable(w, []string{"Delivered", "Error"}, [][]string{{strconv.Itoa(view.Delivered), view.Error}})
	})
}

// cell renders a JSON value for a table cell: strings unquoted, everything
// else as compact JSON.
func cell(v gjson.Result) string {
	if v.Type == gjson.String {
		return truncate(v.String())
	}
	if v.Raw == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
		return truncate(v.Raw)
	}
	return truncate(buf.String())
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellWidth {
		return s
	}
	return string(r[:maxCellWidth-3]) + "..."
}
