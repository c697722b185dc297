package categorizer

import (
	"fmt"
	"strings"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"
)

// maxExamplesPerCategory bounds the learned patterns listed per pair.
const maxExamplesPerCategory = 5

// BuildPrompt renders the classification prompt. patterns are expected in
// usage order, highest first; only the first few per pair are listed.
func BuildPrompt(description string, dir models.Direction, patterns []models.CategoryPattern) string {
	var sb strings.Builder

	sb.WriteString("You are an expert financial advisor helping a family categorize their bank transactions. ")
	sb.WriteString("Your task is to assign the transaction below to exactly one category and subcategory from the list.\n\n")

	if dir == models.Debit {
		sb.WriteString("IMPORTANT: This is a DEBIT transaction (money going out).\n\n")
	} else {
		sb.WriteString("IMPORTANT: This is a CREDIT transaction (money coming in).\n\n")
	}

	sb.WriteString("Available categories:\n")
	for _, group := range taxonomy.Tree() {
		sb.WriteString(fmt.Sprintf("%s: %s\n", group.Name, strings.Join(group.Subs, ", ")))
	}
	sb.WriteString("\nProvide the result as a single string with the format: \"Category -> Subcategory\"\n")

	if examples := patternExamples(patterns); examples != "" {
		sb.WriteString("\nCommon patterns for each category:\n")
		sb.WriteString(examples)
	}

	sb.WriteString(fmt.Sprintf("\nTransaction Description: %q\n", description))
	if dir == models.Debit {
		sb.WriteString("Transaction Type: DEBIT (money going out)\n")
	} else {
		sb.WriteString("Transaction Type: CREDIT (money coming in)\n")
	}
	sb.WriteString("\nRespond with ONLY the category and subcategory in the format \"Category -> Subcategory\", nothing else.")

	return sb.String()
}

func patternExamples(patterns []models.CategoryPattern) string {
	grouped := make(map[taxonomy.Pair][]string)
	var order []taxonomy.Pair

	for _, p := range patterns {
		pair := p.Category()
		if !pair.Valid() || p.Pattern == "" {
			continue
		}
		if _, seen := grouped[pair]; !seen {
			order = append(order, pair)
		}
		if len(grouped[pair]) < maxExamplesPerCategory {
			grouped[pair] = append(grouped[pair], p.Pattern)
		}
	}

	var sb strings.Builder
	for _, pair := range order {
		main, sub, err := taxonomy.ToDisplay(pair.Main, pair.Sub)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s -> %s: %s\n", main, sub, strings.Join(grouped[pair], ", ")))
	}
	return sb.String()
}
