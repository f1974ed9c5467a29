package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"irisserve/artifact"
	"irisserve/client"
	"irisserve/inference"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: irisctl <predict|metrics|health> [flags]")
}

func run(command string, args []string, out io.Writer) error {
	flags := flag.NewFlagSet(command, flag.ContinueOnError)
	apiURL := flags.String("api", "http://localhost:8000", "inference service base URL")
	timeout := flags.Duration("timeout", 10*time.Second, "request timeout")

	var v inference.FeatureVector
	allowZero := false
	if command == "predict" {
		flags.Float64Var(&v.SepalLength, "sepal_length", 0, "sepal length (cm)")
		flags.Float64Var(&v.SepalWidth, "sepal_width", 0, "sepal width (cm)")
		flags.Float64Var(&v.PetalLength, "petal_length", 0, "petal length (cm)")
		flags.Float64Var(&v.PetalWidth, "petal_width", 0, "petal width (cm)")
		flags.BoolVar(&allowZero, "allow-zero", false, "send an all-zero vector instead of rejecting it")
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	c := client.New(*apiURL, *timeout)

	switch command {
	case "predict":
		if !allowZero {
			if err := client.ValidateNonDegenerate(v); err != nil {
				return fmt.Errorf("enter non-zero feature values: %w", err)
			}
		}
		label, err := c.Predict(ctx, v)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Predicted species: %s\n", label)
		return nil
	case "metrics":
		report, err := c.Metrics(ctx)
		if err != nil {
			return err
		}
		printMetrics(out, report)
		return nil
	case "health":
		health, err := c.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "status=%s state=%s metrics=%t\n", health.Status, health.State, health.Metrics)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// printMetrics renders the dashboard's metrics page as text.
func printMetrics(out io.Writer, report *artifact.MetricsReport) {
	fmt.Fprintf(out, "Accuracy: %.2f\n\n", report.Accuracy)
	fmt.Fprintln(out, "Classification Report")
	fmt.Fprintln(out, report.ClassificationReport)

	labels := inference.Labels()
	name := func(class int) string {
		if class < len(labels) {
			return labels[class].String()
		}
		return fmt.Sprintf("class %d", class)
	}

	fmt.Fprintln(out, "ROC")
	for class, auc := range report.ROCAUC {
		points := 0
		if class < len(report.FPR) {
			points = len(report.FPR[class])
		}
		fmt.Fprintf(out, "  %-10s AUC = %.2f  (%d points)\n", name(class), auc, points)
	}
	fmt.Fprintln(out, "Precision-Recall")
	for class, auc := range report.PRAUC {
		points := 0
		if class < len(report.Recall) {
			points = len(report.Recall[class])
		}
		fmt.Fprintf(out, "  %-10s PR AUC = %.2f  (%d points)\n", name(class), auc, points)
	}
}
