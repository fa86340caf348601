package cm

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Printer renders the store contents for inspection. Field layout
// comes from the same type registry the codec uses, so new record
// types print without printer changes.
type Printer struct {
	Out   io.Writer
	Color bool
}

func (p *Printer) heading(s string) string {
	if !p.Color {
		return s
	}
	return ansi.Style{}.Bold().Styled(s)
}

func (p *Printer) muted(s string) string {
	if !p.Color {
		return s
	}
	return ansi.Style{}.Faint().Styled(s)
}

// Print writes every record group in the store, grouped by object
// type in first-insertion order.
func (p *Printer) Print(s *Store) error {
	for _, id := range s.ObjectIDs() {
		count := s.Count(id)
		if _, err := fmt.Fprintf(p.Out, "%s %s\n", p.heading(id.String()), p.muted(fmt.Sprintf("(%d records)", count))); err != nil {
			return err
		}

		for _, token := range s.Tokens(id) {
			records, err := s.GetRecords(id, token)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(p.Out, "  %s\n", p.muted(fmt.Sprintf("token %d", token))); err != nil {
				return err
			}
			for _, record := range records {
				if err := p.printRecord(record); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *Printer) printRecord(record any) error {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return p.printStruct(v, 2)
}

func (p *Printer) printStruct(v reflect.Value, depth int) error {
	indent := strings.Repeat("  ", depth)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		if value.Kind() == reflect.Struct {
			if _, err := fmt.Fprintf(p.Out, "%s%s:\n", indent, field.Name); err != nil {
				return err
			}
			if err := p.printStruct(value, depth+1); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprintf(p.Out, "%s%s: %s\n", indent, field.Name, formatValue(value)); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Uint8, reflect.Uint16:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Uint32, reflect.Uint64:
		if v.Uint() > 9 {
			return fmt.Sprintf("%#x", v.Uint())
		}
		return fmt.Sprintf("%d", v.Uint())
	case reflect.String:
		return fmt.Sprintf("%q", v.String())
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			raw := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(raw), v)
			if end := strings.IndexByte(string(raw), 0); end >= 0 {
				return fmt.Sprintf("%q", string(raw[:end]))
			}
			return fmt.Sprintf("%q", string(raw))
		}
		return fmt.Sprintf("%v", v.Interface())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
