// Command wizard walks through product configuration in the terminal and
// creates the product through the same session logic the API uses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pixelprint/storefront/config"
	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/gallery"
	"github.com/pixelprint/storefront/internal/core/product"
	"github.com/pixelprint/storefront/internal/core/wizard"
	"github.com/pixelprint/storefront/internal/httpclient"
)

var errCancelled = errors.New("wizard cancelled")

func main() {
	imageURL := flag.String("image-url", "", "URL of the image to print")
	imageID := flag.String("image-id", "", "saved image id, marked printed after creation")
	token := flag.String("token", os.Getenv("STOREFRONT_TOKEN"), "bearer token forwarded to the backends")
	flag.Parse()

	if err := run(*imageURL, *imageID, *token, os.Stdout); err != nil {
		if errors.Is(err, errCancelled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(imageURL, imageID, token string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The TUI owns the terminal; only problems are logged.
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	verifier := auth.NewVerifier(cfg.Auth)
	caller := auth.Anonymous()
	if token != "" {
		if caller, err = verifier.Verify(token); err != nil {
			return err
		}
	}

	clientFor := func(baseURL string) *httpclient.Client {
		return httpclient.New(httpclient.Config{BaseURL: baseURL, Timeout: cfg.Services.Timeout})
	}
	gateway := catalog.NewGateway(clientFor(cfg.Services.CatalogURL), logger)
	images := gallery.NewClient(clientFor(cfg.Services.ImageServiceURL), logger)
	submitter := product.NewService(gateway, nil, images, logger)

	session, err := wizard.NewSession(caller.Owner(), wizard.Details{ImageURL: imageURL, ImageID: imageID}, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	final, err := tea.NewProgram(newModel(ctx, caller, session, gateway, submitter), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	m, ok := final.(model)
	if !ok || m.result == nil {
		return errCancelled
	}
	return printResult(out, m.result)
}

func printResult(out io.Writer, result *product.Result) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}
