package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chinjsg/csv-extractor/internal/config"
)

const menu = "Choose method by entering the corresponding number:\n" +
	"1) Generate new CSV file\n" +
	"2) Append existing CSV file\n"

// promptMode asks for a run mode until a valid choice is entered.
func promptMode(in io.Reader, out io.Writer) (string, error) {
	sc := bufio.NewScanner(in)
	fmt.Fprint(out, menu)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "1":
			return config.ModeGenerate, nil
		case "2":
			return config.ModeUpdate, nil
		}
		fmt.Fprintln(out, "Invalid option. Please enter again:")
		fmt.Fprint(out, menu)
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read choice: %w", err)
	}
	return "", io.ErrUnexpectedEOF
}
