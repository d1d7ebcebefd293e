package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func SendSMS(dbPath, to, message string) error {
	app, err := bootstrap(dbPath)
	if err != nil {
		return err
	}
	defer app.Close()

	record, err := app.dispatcher.SendSMS(context.Background(), to, message)
	if err != nil {
		return errors.Wrapf(err, "failed to send SMS to %s", to)
	}
	return printJSON(record)
}

func SendMMS(dbPath, to, path, subject string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	app, err := bootstrap(dbPath)
	if err != nil {
		return err
	}
	defer app.Close()

	record, err := app.dispatcher.SendMMS(context.Background(), to, payload, subject)
	if err != nil {
		return errors.Wrapf(err, "failed to send MMS to %s", to)
	}
	return printJSON(record)
}

func Provision(dbPath string) error {
	app, err := bootstrap(dbPath)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.dispatcher.Provision(context.Background())
	if err != nil {
		return errors.Wrap(err, "failed to provision number")
	}
	return printJSON(result)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
