//go:build linux

package main

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
)

const componentFile = "glyphkey.xml"

type component struct {
	XMLName     xml.Name `xml:"component"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Exec        string   `xml:"exec"`
	Version     string   `xml:"version"`
	Author      string   `xml:"author"`
	License     string   `xml:"license"`
	Textdomain  string   `xml:"textdomain"`
	Engines     []engine `xml:"engines>engine"`
}

type engine struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Author      string `xml:"author"`
	Icon        string `xml:"icon"`
	Layout      string `xml:"layout"`
	LongName    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

// componentXML renders the IBus component file launching binPath.
func componentXML(binPath string) ([]byte, error) {
	c := component{
		Name:        "org.freedesktop.IBus.Glyphkey",
		Description: "Glyphkey sequence-based input method",
		Exec:        binPath + " -ibus",
		Version:     version,
		Author:      "Glyphkey",
		License:     "MIT",
		Textdomain:  "glyphkey",
		Engines: []engine{{
			Name:        "glyphkey",
			Language:    "other",
			License:     "MIT",
			Author:      "Glyphkey",
			Icon:        "input-keyboard",
			Layout:      "default",
			LongName:    "Glyphkey",
			Description: "Type characters with short key sequences",
			Rank:        50,
			Symbol:      "G",
		}},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func componentDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "ibus", "component"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "ibus", "component"), nil
}

func installComponent() (string, error) {
	dir, err := componentDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	// Find the binary path
	binPath, err := os.Executable()
	if err != nil {
		binPath = "/usr/local/bin/glyphkey-ibus"
	}

	data, err := componentXML(binPath)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, componentFile)
	return path, os.WriteFile(path, data, 0644)
}

func uninstallComponent() error {
	dir, err := componentDir()
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(dir, componentFile))
}
