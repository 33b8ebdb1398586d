// Package feed reads the regulatory filer feed. The feed is one large
// hierarchical XML document; filer records are streamed one element at a
// time so an arbitrarily large snapshot never has to fit in memory.
//
// Fields are read directly off the element attributes with no cross-field
// semantic validation; the diff engine and downstream stages decide what a
// usable record is.
package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"regharvest/internal/domain/entity"
)

// filerElement is the on-wire shape of one filer record.
type filerElement struct {
	CRD         string `xml:"crdNb,attr"`
	LegalName   string `xml:"businessNm,attr"`
	DateSubmitd string `xml:"dtSubmitted,attr"`
	State       string `xml:"state,attr"`
	Country     string `xml:"country,attr"`
}

// ErrStopped is returned by a record callback to stop the stream early
// without reporting a failure.
var ErrStopped = errors.New("feed stream stopped")

// Parse streams filer records from r, invoking fn once per record in
// document order. Returning ErrStopped from fn ends the stream cleanly; any
// other error aborts the parse and propagates.
func Parse(r io.Reader, fn func(entity.Filer) error) error {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return entity.DataShape(fmt.Errorf("read feed token: %w", err))
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Filer" {
			continue
		}

		var el filerElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return entity.DataShape(fmt.Errorf("decode filer element: %w", err))
		}

		filer := entity.Filer{
			CRD:           el.CRD,
			LegalName:     el.LegalName,
			VersionMarker: el.DateSubmitd,
			State:         el.State,
			Country:       el.Country,
		}

		if err := fn(filer); err != nil {
			if errors.Is(err, ErrStopped) {
				return nil
			}
			return err
		}
	}
}

// ParseAll collects every filer record into a slice. Convenient for tests
// and for feeds known to be small; the run pipeline streams with Parse.
func ParseAll(r io.Reader) ([]entity.Filer, error) {
	var filers []entity.Filer
	err := Parse(r, func(f entity.Filer) error {
		filers = append(filers, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filers, nil
}
