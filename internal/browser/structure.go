package browser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PageStructure is the compact interactive-element summary handed to the
// LLM instead of raw DOM dumps.
type PageStructure struct {
	URL     string            `json:"url"`
	Title   string            `json:"title"`
	Inputs  []InputElement    `json:"inputs"`
	Buttons []ButtonElement   `json:"buttons"`
	Links   []LinkElement     `json:"links"`
	Selects []DropdownElement `json:"selects"`
}

type InputElement struct {
	Selector    string `json:"selector"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder"`
	Value       string `json:"value"`
	ID          string `json:"id"`
	Name        string `json:"name"`
}

type ButtonElement struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	ID       string `json:"id"`
}

type LinkElement struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

type DropdownElement struct {
	Selector string `json:"selector"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

// Per-category caps matching the in-page extraction script.
const (
	maxStructureInputs  = 20
	maxStructureButtons = 20
	maxStructureLinks   = 15
	maxStructureSelects = 10
)

// ParsePageStructure builds a PageStructure from raw HTML. It is the
// fallback for pages where script evaluation is unavailable; visibility
// cannot be checked here, so only hidden inputs are filtered.
func ParsePageStructure(r io.Reader) (*PageStructure, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	structure := &PageStructure{
		Inputs:  []InputElement{},
		Buttons: []ButtonElement{},
		Links:   []LinkElement{},
		Selects: []DropdownElement{},
	}
	walkHTML(doc, structure)
	return structure, nil
}

func walkHTML(n *html.Node, s *PageStructure) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if n.FirstChild != nil && s.Title == "" {
				s.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "input":
			collectInput(n, s)
		case "textarea":
			if len(s.Inputs) < maxStructureInputs {
				s.Inputs = append(s.Inputs, InputElement{
					Selector:    inputSelector(attr(n, "id"), attr(n, "name"), "textarea"),
					Type:        "textarea",
					Placeholder: attr(n, "placeholder"),
					ID:          attr(n, "id"),
					Name:        attr(n, "name"),
				})
			}
		case "button":
			if len(s.Buttons) < maxStructureButtons {
				text := truncate(nodeText(n), 50)
				if text != "" {
					s.Buttons = append(s.Buttons, ButtonElement{
						Selector: buttonSelector(attr(n, "id"), attr(n, "class")),
						Text:     text,
						ID:       attr(n, "id"),
					})
				}
			}
		case "a":
			if href := attr(n, "href"); href != "" && len(s.Links) < maxStructureLinks {
				text := truncate(nodeText(n), 40)
				if len(text) >= 2 {
					s.Links = append(s.Links, LinkElement{
						Text: text,
						Href: truncate(href, 100),
					})
				}
			}
		case "select":
			if len(s.Selects) < maxStructureSelects {
				s.Selects = append(s.Selects, DropdownElement{
					Selector: inputSelector(attr(n, "id"), attr(n, "name"), "select"),
					ID:       attr(n, "id"),
					Name:     attr(n, "name"),
				})
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walkHTML(child, s)
	}
}

func collectInput(n *html.Node, s *PageStructure) {
	inputType := attr(n, "type")
	if inputType == "" {
		inputType = "text"
	}

	switch inputType {
	case "hidden":
		return
	case "submit", "button":
		if len(s.Buttons) < maxStructureButtons {
			if text := truncate(attr(n, "value"), 50); text != "" {
				s.Buttons = append(s.Buttons, ButtonElement{
					Selector: buttonSelector(attr(n, "id"), attr(n, "class")),
					Text:     text,
					ID:       attr(n, "id"),
				})
			}
		}
		return
	}

	if len(s.Inputs) >= maxStructureInputs {
		return
	}
	s.Inputs = append(s.Inputs, InputElement{
		Selector:    inputSelector(attr(n, "id"), attr(n, "name"), fmt.Sprintf("input[type=%q]", inputType)),
		Type:        inputType,
		Placeholder: attr(n, "placeholder"),
		Value:       truncate(attr(n, "value"), 30),
		ID:          attr(n, "id"),
		Name:        attr(n, "name"),
	})
}

// inputSelector prefers #id, then [name="..."], then the tag fallback.
func inputSelector(id, name, fallback string) string {
	if id != "" {
		return "#" + id
	}
	if name != "" {
		return fmt.Sprintf("[name=%q]", name)
	}
	return fallback
}

// buttonSelector prefers #id, then the first class, then the bare tag.
func buttonSelector(id, class string) string {
	if id != "" {
		return "#" + id
	}
	if class != "" {
		if first := strings.Fields(class); len(first) > 0 {
			return "." + first[0]
		}
	}
	return "button"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
