// Package websocket serves interactive dashboard sessions. A browser sends a
// filter and chart selection; the session evaluates it and replies with the
// filtered rows, the summary and the figure. Each session keeps its own
// selection; the hub only counts sessions and forwards dataset reload
// notices.
package websocket
