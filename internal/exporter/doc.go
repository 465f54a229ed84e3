// Package exporter renders a filtered view for download.
//
// CSV output is the dashboard's canonical download (filtered_cars.csv): the
// source header in file order followed by the rows of the view, prices as
// plain integers and no byte order mark. The same view can be written as an
// Excel workbook with WriteXLSX. FormatCurrency and FormatPrice produce the
// "$36,945" display strings used in summaries.
package exporter
