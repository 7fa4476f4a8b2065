package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Searcher is the catalog lookup contract the chat pipeline depends on.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]ProductRef, error)
}

// ShopifyClient queries the Storefront GraphQL API.
type ShopifyClient struct {
	Domain     string // e.g. myshop.myshopify.com
	Token      string
	APIVersion string
	Client     *http.Client
}

func NewShopifyClient(domain, token, apiVersion string) *ShopifyClient {
	if apiVersion == "" {
		apiVersion = "2024-07"
	}
	return &ShopifyClient{
		Domain:     domain,
		Token:      token,
		APIVersion: apiVersion,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

const searchQuery = `query($q: String!, $n: Int!) {
  products(first: $n, query: $q) {
    edges { node {
      id
      handle
      title
      description
      onlineStoreUrl
      featuredImage { url }
      priceRange { minVariantPrice { amount currencyCode } }
    } }
  }
}`

type gqlReq struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlResp struct {
	Data struct {
		Products struct {
			Edges []struct {
				Node struct {
					ID             string `json:"id"`
					Handle         string `json:"handle"`
					Title          string `json:"title"`
					Description    string `json:"description"`
					OnlineStoreURL string `json:"onlineStoreUrl"`
					FeaturedImage  *struct {
						URL string `json:"url"`
					} `json:"featuredImage"`
					PriceRange struct {
						MinVariantPrice struct {
							Amount       string `json:"amount"`
							CurrencyCode string `json:"currencyCode"`
						} `json:"minVariantPrice"`
					} `json:"priceRange"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *ShopifyClient) Search(ctx context.Context, query string, limit int) ([]ProductRef, error) {
	if c.Client == nil {
		return nil, errors.New("shopify: http client is nil")
	}
	if limit <= 0 {
		limit = 5
	}

	b, err := json.Marshal(gqlReq{
		Query:     searchQuery,
		Variables: map[string]any{"q": query, "n": limit},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s/api/%s/graphql.json", c.Domain, c.APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("shopify: status %d", resp.StatusCode)
	}

	var decoded gqlResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("shopify: %s", decoded.Errors[0].Message)
	}

	out := make([]ProductRef, 0, len(decoded.Data.Products.Edges))
	for _, e := range decoded.Data.Products.Edges {
		n := e.Node
		price, _ := strconv.ParseFloat(n.PriceRange.MinVariantPrice.Amount, 64)
		p := ProductRef{
			ID:          n.ID,
			Handle:      n.Handle,
			Title:       n.Title,
			Description: n.Description,
			Price:       price,
			Currency:    n.PriceRange.MinVariantPrice.CurrencyCode,
			URL:         n.OnlineStoreURL,
		}
		if n.FeaturedImage != nil {
			p.ImageURL = n.FeaturedImage.URL
		}
		out = append(out, p)
	}
	return out, nil
}
