// filename: internal/hlp/xml.go
package hlp

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// XMLMode режим разбора XML
type XMLMode string

const (
	// XMLDefault атрибуты "@name", текст "#text", повторы в массивы
	XMLDefault XMLMode = ""
	// XMLWindows дополнительно сворачивает <Data Name="k">v</Data> в {"k": "v"}
	XMLWindows XMLMode = "windows"
)

type xmlNode map[string]interface{}

// NewXMLParser возвращает парсер XML документа в объект // v1.0
func NewXMLParser(mode XMLMode) (Parser, error) {
	switch mode {
	case XMLDefault, XMLWindows:
	default:
		return nil, fmt.Errorf("unsupported XML mode '%s'", mode)
	}

	return func(input string) (string, error) {
		decoder := xml.NewDecoder(strings.NewReader(input))
		decoder.Strict = true

		var root xmlNode
		for {
			token, err := decoder.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", fmt.Errorf("invalid XML: %w", err)
			}

			switch t := token.(type) {
			case xml.StartElement:
				if root != nil {
					return "", fmt.Errorf("invalid XML: multiple root elements")
				}
				node, err := decodeElement(decoder, t, mode)
				if err != nil {
					return "", fmt.Errorf("invalid XML: %w", err)
				}
				root = xmlNode{t.Name.Local: node}
			case xml.CharData:
				if strings.TrimSpace(string(t)) != "" {
					return "", fmt.Errorf("invalid XML: text outside root element")
				}
			}
		}

		if root == nil {
			return "", fmt.Errorf("invalid XML: no root element")
		}
		data, err := json.Marshal(root)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}, nil
}

// decodeElement читает элемент до закрывающего тега
func decodeElement(decoder *xml.Decoder, start xml.StartElement, mode XMLMode) (xmlNode, error) {
	node := xmlNode{}
	for _, attr := range start.Attr {
		node["@"+attr.Name.Local] = attr.Value
	}

	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			child, err := decodeElement(decoder, t, mode)
			if err != nil {
				return nil, err
			}
			if mode == XMLWindows && t.Name.Local == "Data" {
				if name, ok := child["@Name"].(string); ok {
					value, _ := child["#text"].(string)
					node[name] = value
					continue
				}
			}
			appendChild(node, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if trimmed := strings.TrimSpace(text.String()); trimmed != "" {
				node["#text"] = trimmed
			}
			return node, nil
		}
	}
}

// appendChild добавляет дочерний элемент; повторяющиеся имена собираются в массив
func appendChild(node xmlNode, name string, child xmlNode) {
	existing, ok := node[name]
	if !ok {
		node[name] = child
		return
	}
	switch current := existing.(type) {
	case []interface{}:
		node[name] = append(current, child)
	default:
		node[name] = []interface{}{current, child}
	}
}
