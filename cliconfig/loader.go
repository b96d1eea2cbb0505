// Package cliconfig loads command configuration structs from urfave/cli
// contexts, driven by `cli` struct tags.
//
// It is intended for internal use by nomw only.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

// Matches "arg:index" (specific non-flag arg) or "arg:*" (all non-flag args).
var argCLINameRE = regexp.MustCompile(`arg:(\d+|\*)`)

// Load populates cfg from the flags and positional arguments of c. Each
// struct field is wired up by its `cli` tag: a flag name, "arg:N" for the
// Nth positional argument, or "arg:*" for all of them. A `normalize` tag
// applies post-processing and a `validate` tag applies checks.
func Load(c *cli.Context, cfg any) error {
	fields, err := reflections.Fields(cfg)
	if err != nil {
		return fmt.Errorf("listing fields of %T: %w", cfg, err)
	}

	for _, fieldName := range fields {
		cliName, _ := reflections.GetFieldTag(cfg, fieldName, "cli")
		if cliName != "" {
			if err := setFieldValueFromCLI(c, cfg, fieldName, cliName); err != nil {
				return fmt.Errorf("setting config field %s: %w", fieldName, err)
			}
		}

		normalization, _ := reflections.GetFieldTag(cfg, fieldName, "normalize")
		if normalization != "" {
			if err := normalizeField(cfg, fieldName, normalization); err != nil {
				return fmt.Errorf("normalizing config field %s: %w", fieldName, err)
			}
		}

		rules, _ := reflections.GetFieldTag(cfg, fieldName, "validate")
		if rules != "" {
			if err := validateField(c, cfg, fieldName, cliName, rules); err != nil {
				return err
			}
		}
	}

	return nil
}

func setFieldValueFromCLI(c *cli.Context, cfg any, fieldName, cliName string) error {
	fieldKind, err := reflections.GetFieldKind(cfg, fieldName)
	if err != nil {
		return fmt.Errorf("getting the kind of struct field %q: %w", fieldName, err)
	}
	fieldType, err := reflections.GetFieldType(cfg, fieldName)
	if err != nil {
		return fmt.Errorf("getting the type of struct field %q: %w", fieldName, err)
	}

	var value any

	if argMatch := argCLINameRE.FindStringSubmatch(cliName); len(argMatch) > 0 {
		if argNum := argMatch[1]; argNum == "*" {
			value = []string(c.Args())
		} else {
			argIndex, err := strconv.Atoi(argNum)
			if err != nil {
				return fmt.Errorf("converting string to int: %w", err)
			}
			if len(c.Args()) > argIndex {
				value = c.Args()[argIndex]
			}
		}
	} else {
		switch fieldKind {
		case reflect.String:
			value = c.String(cliName)
		case reflect.Slice:
			value = c.StringSlice(cliName)
		case reflect.Bool:
			value = c.Bool(cliName)
		case reflect.Int:
			value = c.Int(cliName)
		case reflect.Int64:
			switch fieldType {
			case "int64":
				value = c.Int64(cliName)
			case "time.Duration":
				value = c.Duration(cliName)
			default:
				return fmt.Errorf("unsupported field type %s for kind int64", fieldType)
			}
		default:
			return fmt.Errorf("unable to handle type: %s", fieldKind)
		}
	}

	if value != nil {
		if err := reflections.SetField(cfg, fieldName, value); err != nil {
			return fmt.Errorf("setting value field %q to %q: %w", fieldName, value, err)
		}
	}

	return nil
}

func fieldValueIsEmpty(cfg any, fieldName string) bool {
	value, _ := reflections.GetField(cfg, fieldName)
	fieldKind, _ := reflections.GetFieldKind(cfg, fieldName)

	switch fieldKind {
	case reflect.String:
		return value == ""
	case reflect.Slice:
		return reflect.ValueOf(value).Len() == 0
	case reflect.Bool:
		return value == false
	case reflect.Int, reflect.Int64:
		return reflect.ValueOf(value).Int() == 0
	default:
		panic(fmt.Sprintf("can't determine empty-ness for field type %s", fieldKind))
	}
}

func validateField(c *cli.Context, cfg any, fieldName, cliName, validationRules string) error {
	label := cliName
	if label == "" {
		label = fieldName
	}

	for _, rule := range strings.Split(validationRules, ",") {
		switch rule {
		case "required":
			if fieldValueIsEmpty(cfg, fieldName) {
				return fmt.Errorf("missing %s. See: `%s %s --help`", label, c.App.Name, c.Command.Name)
			}

		default:
			return fmt.Errorf("unknown config validation rule %q", rule)
		}
	}

	return nil
}

func normalizeField(cfg any, fieldName, normalization string) error {
	switch normalization {
	case "filepath":
		value, _ := reflections.GetField(cfg, fieldName)
		valueAsString, ok := value.(string)
		if !ok {
			return fmt.Errorf("filepath normalization only works on string fields")
		}
		if valueAsString == "" {
			return nil
		}

		normalized, err := normalizeFilePath(valueAsString)
		if err != nil {
			return err
		}
		return reflections.SetField(cfg, fieldName, normalized)

	case "list":
		value, _ := reflections.GetField(cfg, fieldName)
		valueAsSlice, ok := value.([]string)
		if !ok {
			return fmt.Errorf("list normalization only works on string slice fields")
		}

		normalizedSlice := []string{}
		for _, value := range valueAsSlice {
			for _, split := range strings.Split(value, ",") {
				if split = strings.TrimSpace(split); split != "" {
					normalizedSlice = append(normalizedSlice, split)
				}
			}
		}
		return reflections.SetField(cfg, fieldName, normalizedSlice)

	default:
		return fmt.Errorf("unknown normalization %q", normalization)
	}
}

// normalizeFilePath expands a leading "~" to the user's home directory and
// makes the path absolute.
func normalizeFilePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~"+string(os.PathSeparator)) || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %q: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
