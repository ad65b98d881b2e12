package csvcodec

import "strings"

const bom = "\uFEFF"

type scanState int

const (
	unquoted scanState = iota
	quoted
)

// row is one parsed record together with its 1-based position in the file.
type row struct {
	line   int
	fields []string
}

func (r row) field(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func (r row) blank() bool {
	for _, f := range r.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// scan splits text into records. Quoted fields may contain commas, doubled
// quotes and newlines; carriage returns outside quotes are dropped. Records
// whose fields are all blank are omitted but still counted for numbering.
func scan(text string) []row {
	text = strings.TrimPrefix(text, bom)

	var (
		rows   []row
		fields []string
		field  strings.Builder
		state  = unquoted
		line   = 1
	)

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
	}
	endRow := func() {
		r := row{line: line, fields: fields}
		if !r.blank() {
			rows = append(rows, r)
		}
		fields = nil
		line++
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if state == quoted {
			if ch == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				state = unquoted
				continue
			}
			field.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			state = quoted
		case ',':
			endField()
		case '\n':
			endField()
			endRow()
		case '\r':
		default:
			field.WriteByte(ch)
		}
	}

	endField()
	endRow()

	return rows
}
