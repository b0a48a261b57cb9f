package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"vkbackup/pkg/config"
	"vkbackup/pkg/vk"
)

// target is what a backup run operates on
type target struct {
	ownerID string
	count   int
}

// resolveTarget takes the owner from args and the count from the flag,
// prompting for whatever is missing. The count prompt only appears in
// interactive mode, i.e. when no owner argument was given.
func resolveTarget(in *bufio.Reader, out io.Writer, args []string, flagCount, defaultCount int) (target, error) {
	if defaultCount <= 0 {
		defaultCount = config.DefaultCount
	}

	if len(args) > 0 {
		ownerID, err := vk.NormalizeOwnerID(args[0])
		if err != nil {
			return target{}, err
		}
		count := defaultCount
		if flagCount > 0 {
			count = flagCount
		}
		return target{ownerID: ownerID, count: count}, nil
	}

	fmt.Fprintln(out, "Examples: 53688675, id53688675, @id53688675")
	fmt.Fprintln(out, "   or a profile link: https://vk.com/id53688675")

	ownerID, err := promptOwnerID(in, out)
	if err != nil {
		return target{}, err
	}

	count := flagCount
	if count <= 0 {
		count, err = promptCount(in, out, defaultCount)
		if err != nil {
			return target{}, err
		}
	}
	return target{ownerID: ownerID, count: count}, nil
}

// promptOwnerID asks until a valid owner id is entered
func promptOwnerID(in *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "VK user ID: ")
		line, err := readLine(in)
		if err != nil {
			return "", err
		}
		if line == "" {
			fmt.Fprintln(out, "User ID cannot be empty")
			continue
		}

		ownerID, err := vk.NormalizeOwnerID(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		return ownerID, nil
	}
}

// promptCount asks for a positive count; an empty answer picks def
func promptCount(in *bufio.Reader, out io.Writer, def int) (int, error) {
	for {
		fmt.Fprintf(out, "Number of photos (default %d): ", def)
		line, err := readLine(in)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}

		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(out, "Enter a whole number")
			continue
		}
		if n <= 0 {
			fmt.Fprintln(out, "Count must be greater than 0")
			continue
		}
		return n, nil
	}
}

// readLine returns one trimmed line; a final line without newline counts
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errors.New("input closed")
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
