package domain

import (
	"fmt"
	"strings"
)

// Category is the coarse cuisine bucket shown in the list filter.
type Category string

const (
	CategoryKorean   Category = "KOREAN"
	CategoryJapanese Category = "JAPANESE"
	CategoryAsian    Category = "ASIAN"
	CategoryCafe     Category = "CAFE"
	CategoryBar      Category = "BAR"
	CategoryWestern  Category = "WESTERN"
	CategoryEtc      Category = "ETC"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategoryKorean,
	CategoryJapanese,
	CategoryAsian,
	CategoryCafe,
	CategoryBar,
	CategoryWestern,
	CategoryEtc,
}

type categoryRule struct {
	category Category
	tags     map[string]struct{}
}

// 先にマッチしたルールが優先される。順序を変えないこと。
var categoryRules = []categoryRule{
	{category: CategoryKorean, tags: tagSet("korean_restaurant")},
	{category: CategoryJapanese, tags: tagSet("japanese_restaurant", "sushi_restaurant", "ramen_restaurant")},
	{category: CategoryAsian, tags: tagSet(
		"chinese_restaurant", "vietnamese_restaurant", "thai_restaurant", "indian_restaurant",
		"asian_restaurant", "indonesian_restaurant",
	)},
	{category: CategoryCafe, tags: tagSet("cafe", "coffee_shop", "bakery", "tea_house", "dessert_shop")},
	{category: CategoryBar, tags: tagSet("bar", "pub", "wine_bar", "night_club")},
	{category: CategoryWestern, tags: tagSet(
		"fast_food_restaurant", "pizza_restaurant", "hamburger_restaurant", "steak_house",
		"italian_restaurant", "mexican_restaurant", "american_restaurant", "french_restaurant",
	)},
}

func tagSet(tags ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// Classify maps raw type tags to exactly one Category. Matching is exact tag membership;
// primaryType is treated as one more tag.
func Classify(types []string, primaryType string) Category {
	for _, rule := range categoryRules {
		if _, ok := rule.tags[primaryType]; ok {
			return rule.category
		}
		for _, tag := range types {
			if _, ok := rule.tags[tag]; ok {
				return rule.category
			}
		}
	}
	return CategoryEtc
}

// CategoryFilter is a Category or CategoryAll.
type CategoryFilter string

// CategoryAll disables category filtering.
const CategoryAll CategoryFilter = "ALL"

// Matches reports whether c passes the filter.
func (f CategoryFilter) Matches(c Category) bool {
	return f == CategoryAll || Category(f) == c
}

// ParseCategoryFilter は大文字小文字を無視してフィルタ値を解釈する。空文字は ALL。
func ParseCategoryFilter(raw string) (CategoryFilter, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" || value == string(CategoryAll) {
		return CategoryAll, nil
	}
	for _, c := range Categories {
		if string(c) == value {
			return CategoryFilter(c), nil
		}
	}
	return "", &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", raw)}
}
