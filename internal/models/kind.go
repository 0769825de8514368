// Package models defines the data structures shared by the extraction, matching and
// reporting layers of targetdiff.
package models

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// ErrUnknownKind is returned when a kind name is not one of the supported declaration kinds.
var ErrUnknownKind = errors.New("unknown declaration kind")

// DeclarationKind selects the statement grammar, file filter and identity-key strategy of a run.
type DeclarationKind string

const (
	KindJointTarget DeclarationKind = "jointtarget"
	KindRobTarget   DeclarationKind = "robtarget"
	KindToolData    DeclarationKind = "tooldata"
)

// Kinds returns all supported kinds in display order.
func Kinds() []DeclarationKind {
	return []DeclarationKind{KindJointTarget, KindRobTarget, KindToolData}
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (DeclarationKind, error) {
	switch DeclarationKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindJointTarget:
		return KindJointTarget, nil
	case KindRobTarget:
		return KindRobTarget, nil
	case KindToolData:
		return KindToolData, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// KeyStrategy decides how an item key is derived from a file.
type KeyStrategy string

const (
	// KeyFromPath applies the profile's key pattern to the file's relative path.
	KeyFromPath KeyStrategy = "path"
	// KeyFromFilename uses the file name itself.
	KeyFromFilename KeyStrategy = "filename"
)

// RobotKeyPattern extracts robot identifiers such as Z01.2_034_R01 from a path.
const RobotKeyPattern = `(Z\d{2}\.\d{1}_\d{1,3}_?R\d{2})`

// KindProfile carries everything that varies between declaration kinds as data.
type KindProfile struct {
	Kind DeclarationKind

	// Grammar
	Keyword    string
	Qualifiers []string
	NamePrefix string

	// File selection
	Extension    string
	FilePrefixes []string

	// Identity
	KeyStrategy KeyStrategy
	KeyPattern  *regexp.Regexp

	// Comparison
	FixedArity bool
	Numeric    bool

	// ItemLabel names the item column in reports.
	ItemLabel string
}

var robotKeyRegex = regexp.MustCompile(RobotKeyPattern)

// DefaultProfile returns the built-in profile for a kind.
func DefaultProfile(kind DeclarationKind) (KindProfile, error) {
	switch kind {
	case KindJointTarget, KindRobTarget:
		return KindProfile{
			Kind:         kind,
			Keyword:      string(kind),
			Qualifiers:   []string{"CONST", "PERS"},
			Extension:    ".mod",
			FilePrefixes: []string{"path_"},
			KeyStrategy:  KeyFromPath,
			KeyPattern:   robotKeyRegex,
			FixedArity:   kind == KindJointTarget,
			Numeric:      true,
			ItemLabel:    "Robot Number",
		}, nil
	case KindToolData:
		return KindProfile{
			Kind:         kind,
			Keyword:      string(kind),
			Qualifiers:   []string{"PERS"},
			NamePrefix:   "t_p",
			Extension:    ".sys",
			FilePrefixes: []string{"all_", "all_data"},
			KeyStrategy:  KeyFromFilename,
			Numeric:      true,
			ItemLabel:    "SYS File",
		}, nil
	}
	return KindProfile{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

// MustProfile is DefaultProfile for kinds known at compile time.
func MustProfile(kind DeclarationKind) KindProfile {
	p, err := DefaultProfile(kind)
	if err != nil {
		panic(err)
	}
	return p
}

// Accepts reports whether a file name passes the extension and prefix filter.
func (p KindProfile) Accepts(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, strings.ToLower(p.Extension)) {
		return false
	}
	if len(p.FilePrefixes) == 0 {
		return true
	}
	for _, prefix := range p.FilePrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// ItemKey derives the identity key of a file. An empty key excludes the file.
func (p KindProfile) ItemKey(f FileRef) string {
	switch p.KeyStrategy {
	case KeyFromFilename:
		if f.Name != "" {
			return f.Name
		}
		return path.Base(f.RelPath)
	default:
		if p.KeyPattern == nil {
			return ""
		}
		match := p.KeyPattern.FindStringSubmatch(f.RelPath)
		if len(match) < 2 {
			return ""
		}
		return match[1]
	}
}

// AxisNames labels the twelve joint-target fields in order.
var AxisNames = [12]string{"J1", "J2", "J3", "J4", "J5", "J6", "Q1", "Q2", "Q3", "Q4", "Q5", "Q6"}
