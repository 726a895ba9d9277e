package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/tickdb/utils"
)

// Save writes a markdown page documenting the request and its response into
// API_EXAMPLES_PATH. It does nothing when the variable is not set.
func Save(response *apitest.Response, title, description string) {

	examplesPath := os.Getenv("API_EXAMPLES_PATH")
	if examplesPath == "" {
		return
	}

	request := response.Request

	query := request.URL.RawQuery
	if query != "" {
		query = "?" + query
	}

	b := &strings.Builder{}

	fmt.Fprintf(b, "# %s\n", title)
	fmt.Fprintf(b, "%s\n", cropTabs(description))

	b.WriteString("Curl example:\n\n```sh\n")
	b.WriteString("curl ")
	if request.Method != "GET" {
		b.WriteString("-X " + request.Method + " ")
	}
	fmt.Fprintf(b, "\"https://example.com%s%s\"", request.URL.Path, query)
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(b, " \\\n-H \"%s: %s\"", k, v)
		}
	}
	if body := formatJSON(response.BodyRequestString()); body != "" {
		fmt.Fprintf(b, " \\\n-d '%s'", body)
	}
	b.WriteString("\n```\n\n\n")

	b.WriteString("HTTP request/response example:\n\n```http\n")
	fmt.Fprintf(b, "%s %s%s %s\n", request.Method, request.URL.Path, query, request.Proto)
	b.WriteString("Host: example.com\n")
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(b, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(b, "\n%s\n\n", formatJSON(response.BodyRequestString()))

	fmt.Fprintf(b, "%s %s\n", response.Proto, response.Status)
	for _, k := range utils.GetKeys(response.Header) {
		if k == "Date" {
			b.WriteString("Date: Mon, 15 Aug 2022 02:08:13 GMT\n")
			continue
		}
		for _, v := range response.Header[k] {
			fmt.Fprintf(b, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(b, "\n%s\n```\n\n\n", formatJSON(response.BodyString()))

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(examplesPath, path.Clean(filename))
	if err := os.WriteFile(p, []byte(b.String()), 0666); err != nil {
		fmt.Println("Saving err:", err)
	}
}

// formatJSON indents every JSON document in body, which may hold several of
// them (NDJSON). Anything else is returned untouched.
func formatJSON(body string) string {

	decoder := jsontext.NewDecoder(strings.NewReader(body))

	documents := []string{}
	for {
		var v any
		err := json.UnmarshalDecode(decoder, &v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return body
		}

		b, err := json.Marshal(v, json.Deterministic(true), jsontext.WithIndent("    "))
		if err != nil {
			return body
		}
		documents = append(documents, string(b))
	}

	return strings.Join(documents, "\n")
}

// cropTabs removes the indentation shared by every line of a raw string
// literal written inside a test.
func cropTabs(d string) string {
	lines := strings.Split(d, "\n")

	first, last := 0, len(lines)
	if len(lines) > 2 {
		first++
		last--
	}

	minTabs := -1
	for _, line := range lines[first:last] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := len(line) - len(strings.TrimLeft(line, "\t"))
		if minTabs < 0 || tabs < minTabs {
			minTabs = tabs
		}
	}
	if minTabs <= 0 {
		return d
	}

	prefix := strings.Repeat("\t", minTabs)
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
