package shop

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

type document struct {
	operation string
	text      string
}

// mustDocument parses a query at startup so a malformed document fails fast
// instead of on the first tenant request.
func mustDocument(text string) document {
	doc, err := parser.ParseQuery(&ast.Source{Name: "shop", Input: text})
	if err != nil {
		panic(fmt.Sprintf("shop: invalid graphql document: %v", err))
	}
	if len(doc.Operations) != 1 || doc.Operations[0].Name == "" {
		panic("shop: graphql document must hold exactly one named operation")
	}
	return document{operation: doc.Operations[0].Name, text: text}
}

var searchProductsDoc = mustDocument(`
query searchProducts($query: String!, $first: Int!) {
  products(first: $first, query: $query) {
    edges {
      node {
        id
        title
        description
        handle
        status
        featuredImage { url altText }
        images(first: 5) {
          edges { node { url altText } }
        }
        priceRange {
          minVariantPrice { amount currencyCode }
          maxVariantPrice { amount currencyCode }
        }
        variants(first: 10) {
          edges {
            node {
              id
              title
              price
              availableForSale
              selectedOptions { name value }
              image { url altText }
            }
          }
        }
        onlineStoreUrl
        tags
      }
    }
  }
}
`)

var productDetailsDoc = mustDocument(`
query getProduct($id: ID!) {
  product(id: $id) {
    id
    title
    description
    handle
    status
    featuredImage { url altText }
    images(first: 10) {
      edges { node { url altText } }
    }
    priceRange {
      minVariantPrice { amount currencyCode }
      maxVariantPrice { amount currencyCode }
    }
    variants(first: 50) {
      edges {
        node {
          id
          title
          price
          availableForSale
          selectedOptions { name value }
          image { url altText }
        }
      }
    }
    onlineStoreUrl
    tags
    options { name values }
  }
}
`)
