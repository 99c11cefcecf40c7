package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

// Line styles; KML colors are aabbggrr
const (
	StyleOK  = "lineOk"
	StyleBad = "lineBad"

	colorOK   = "ff00ff00"
	colorBad  = "ff0000ff"
	lineWidth = 3
)

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name    string      `xml:"name"`
	Styles  []kmlStyle  `xml:"Style"`
	Folders []kmlFolder `xml:"Folder"`
}

type kmlStyle struct {
	ID        string       `xml:"id,attr"`
	LineStyle kmlLineStyle `xml:"LineStyle"`
}

type kmlLineStyle struct {
	Color string `xml:"color"`
	Width int    `xml:"width"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name       string        `xml:"name"`
	StyleURL   string        `xml:"styleUrl"`
	LineString kmlLineString `xml:"LineString"`
}

type kmlLineString struct {
	Tessellate   int    `xml:"tessellate"`
	AltitudeMode string `xml:"altitudeMode"`
	Coordinates  string `xml:"coordinates"`
}

// PlacemarkName is the label of a vector: point, timestamp when known and errors
func PlacemarkName(v Vector) string {
	var b strings.Builder
	b.WriteString("Pt ")
	b.WriteString(v.PointID)
	if v.Timestamp != "" {
		b.WriteString(" | ")
		b.WriteString(v.Timestamp)
	}
	fmt.Fprintf(&b, " | H:%.1fm V:%.1fm", v.HorizontalErrorMeters, v.VerticalErrorMeters)
	return b.String()
}

func coordinates(v Vector) string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	return f(v.TruthLon) + "," + f(v.TruthLat) + "," + f(v.TruthAlt) + " " +
		f(v.ReportedLon) + "," + f(v.ReportedLat) + "," + f(v.ReportedAlt)
}

// WriteKML writes the vectors as a KML 2.2 document with one folder per group.
// Passing vectors use the green style, failing ones the red style.
func WriteKML(w io.Writer, rep VectorReport, docName string) error {
	doc := kmlRoot{
		Xmlns: kmlNamespace,
		Document: kmlDocument{
			Name: docName,
			Styles: []kmlStyle{
				{ID: StyleOK, LineStyle: kmlLineStyle{Color: colorOK, Width: lineWidth}},
				{ID: StyleBad, LineStyle: kmlLineStyle{Color: colorBad, Width: lineWidth}},
			},
		},
	}

	for _, g := range rep.Groups {
		folder := kmlFolder{Name: g.Name, Placemarks: make([]kmlPlacemark, 0, len(g.Vectors))}
		for _, v := range g.Vectors {
			style := "#" + StyleBad
			if v.Pass {
				style = "#" + StyleOK
			}
			folder.Placemarks = append(folder.Placemarks, kmlPlacemark{
				Name:     PlacemarkName(v),
				StyleURL: style,
				LineString: kmlLineString{
					Tessellate:   1,
					AltitudeMode: "absolute",
					Coordinates:  coordinates(v),
				},
			})
		}
		doc.Document.Folders = append(doc.Document.Folders, folder)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write kml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode kml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("failed to flush kml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
