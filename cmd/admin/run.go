package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type registrar interface {
	Register(ctx context.Context, username, password string, role models.Role) (*models.User, error)
}

var errPasswordMismatch = errors.New("passwords do not match")

func run(ctx context.Context, r registrar, reader *bufio.Reader, w io.Writer) error {
	username, err := getText(reader, "Administrator username", w)
	if err != nil {
		return err
	}

	password, err := getPassword(w, "Enter password: ")
	if err != nil {
		return err
	}
	confirm, err := getPassword(w, "Repeat password: ")
	if err != nil {
		return err
	}
	if string(password) != string(confirm) {
		return errPasswordMismatch
	}

	u, err := r.Register(ctx, username, string(password), models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("registering administrator: %w", err)
	}

	_, err = fmt.Fprintf(w, "Administrator %s created, id=%s\n", u.UserName, u.ID)
	return err
}

func getText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func getPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
