package release

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
)

const pomPath = "META-INF/maven/org.w3c/epubcheck/pom.xml"

type pom struct {
	Version string `xml:"version"`
	SCM     struct {
		Tag string `xml:"tag"`
	} `xml:"scm"`
}

// JarVersion reads the release tag of an installed epubcheck.jar. It
// returns "" when the jar or its pom.xml is missing.
func JarVersion(jarPath string) (string, error) {
	if _, err := os.Stat(jarPath); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != pomPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		var p pom
		if err := xml.Unmarshal(data, &p); err != nil {
			return "", err
		}
		switch {
		case p.SCM.Tag != "" && p.SCM.Tag != "HEAD":
			return p.SCM.Tag, nil
		case p.Version != "":
			return "v" + p.Version, nil
		}
		return "", nil
	}
	return "", nil
}
