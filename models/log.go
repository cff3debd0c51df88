package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field is one named column value of a result row.
type Field struct {
	Name  string
	Value any
}

// Row is an ordered list of column values. Column sets differ per application,
// so rows are kept in the order the backing schema returned them.
type Row []Field

// Get returns the value for the named column.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the column names of the row in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// MarshalJSON encodes the row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order.
// Numbers are kept as json.Number so integers survive unchanged.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	row := Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row key must be a string")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		row = append(row, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = row
	return nil
}

// ResultSet is the output of one log query.
// Columns are returned exactly as the backing schema names them; no
// cross-application normalization is performed.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the result set holds no rows.
func (rs *ResultSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// Filters are the optional search filters of a query request.
// BackendSystem, Channel and the transaction ids are bound for templates
// that reference them; most templates only use SessionID.
type Filters struct {
	SessionID       string
	BackendSystem   string
	Channel         string
	SCTransactionID string
	TransactionID   string
}

// QueryRequest is the validated input of one search.
type QueryRequest struct {
	Application string
	Filters     Filters
	Start       time.Time
	End         time.Time
	TimeSpan    int
	Limit       int
}

// QueryForm is the form payload shared by the query and export endpoints.
// Limit and TimeSpan stay strings so malformed values can be reported
// instead of failing the bind.
type QueryForm struct {
	Application     string `form:"application"`
	JSessionID      string `form:"jsession_id"`
	BackendSystem   string `form:"backend_system"`
	Channel         string `form:"channel"`
	SCTransactionID string `form:"sc_transaction_id"`
	TransactionID   string `form:"transaction_id"`
	TimeSpan        string `form:"time_span"`
	Limit           string `form:"limit"`
}

// SendLogsRequest is the payload of the email endpoint.
type SendLogsRequest struct {
	Rows    []Row  `json:"rows"`
	Email   string `json:"email"`
	AppName string `json:"app_name"`
}

// QueryResults is what the index page renders after a successful search.
type QueryResults struct {
	Columns    []string
	Rows       []Row
	Count      int
	AppName    string
	JSessionID string
	StartTime  string
	EndTime    string
	TimeSpan   int
}
