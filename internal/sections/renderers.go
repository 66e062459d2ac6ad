package sections

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/siteclient"
)

// PropertySource 房源数据，由 siteclient 实现
type PropertySource interface {
	ListProperties(ctx context.Context, companyID int, q siteclient.PropertyQuery) (*siteclient.PropertyPage, error)
	GetProperty(ctx context.Context, companyID, id int) (*model.Property, error)
}

// Link 导航链接
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// RegisterDefaults 注册内置区块
func RegisterDefaults(d *Dispatcher, properties PropertySource) {
	d.Register("header", RendererFunc(renderHeader))
	d.Register("hero", RendererFunc(renderHero))
	d.Register("search-bar", RendererFunc(renderSearchBar))
	d.Register("property-grid", &propertyGrid{source: properties})
	d.Register("property-detail", &propertyDetail{source: properties})
	d.Register("about", RendererFunc(renderAbout))
	d.Register("text", RendererFunc(renderText))
	d.Register("contact-form", RendererFunc(renderContactForm))
	d.Register("contact-info", RendererFunc(renderContactInfo))
	d.Register("testimonials", RendererFunc(renderTestimonials))
	d.Register("cta", RendererFunc(renderCTA))
	d.Register("gallery", RendererFunc(renderGallery))
	d.Register("whatsapp-button", RendererFunc(renderWhatsappButton))
	d.Register("footer", RendererFunc(renderFooter))
}

// navLinks 站点导航，跳过参数化页面
func navLinks(site *Site) []Link {
	links := make([]Link, 0, len(site.Pages))
	for _, p := range site.Pages {
		if strings.Contains(p.Slug, ":") {
			continue
		}
		links = append(links, Link{Label: p.Name, Href: p.Slug})
	}
	return links
}

func companyName(site *Site) string {
	if site.Visual.Branding.CompanyName != "" {
		return site.Visual.Branding.CompanyName
	}
	return site.Company.Name
}

// HeaderProps header
type HeaderProps struct {
	CompanyName string `json:"companyName"`
	LogoURL     string `json:"logoUrl"`
	Links       []Link `json:"links"`
	Phone       string `json:"phone,omitempty"`
	Sticky      bool   `json:"sticky"`
	Style       string `json:"style"`
}

func renderHeader(_ context.Context, in Input) (interface{}, error) {
	h := HeaderProps{
		CompanyName: companyName(in.Site),
		LogoURL:     in.Config.String("logoUrl", in.Site.Visual.Branding.LogoURL),
		Links:       navLinks(in.Site),
		Sticky:      in.Config.Bool("sticky", true),
		Style:       in.Config.String("style", in.Site.Visual.Layout.HeaderStyle),
	}
	if in.Config.Bool("showPhone", true) {
		h.Phone = in.Site.Visual.Contact.Phone
	}
	return h, nil
}

// HeroProps hero
type HeroProps struct {
	Title           string  `json:"title"`
	Subtitle        string  `json:"subtitle"`
	BackgroundImage string  `json:"backgroundImage,omitempty"`
	OverlayOpacity  float64 `json:"overlayOpacity"`
	Height          string  `json:"height"`
	ShowSearch      bool    `json:"showSearch"`
	CTAText         string  `json:"ctaText"`
	CTALink         string  `json:"ctaLink"`
}

func renderHero(_ context.Context, in Input) (interface{}, error) {
	opacity := in.Config.Float("overlayOpacity", 0.5)
	if opacity < 0 || opacity > 1 {
		opacity = 0.5
	}
	return HeroProps{
		Title:           in.Config.String("title", "Encontre o imóvel dos seus sonhos"),
		Subtitle:        in.Config.String("subtitle", in.Site.Visual.Branding.Tagline),
		BackgroundImage: in.Config.String("backgroundImage", ""),
		OverlayOpacity:  opacity,
		Height:          in.Config.String("height", "500px"),
		ShowSearch:      in.Config.Bool("showSearch", true),
		CTAText:         in.Config.String("ctaText", "Ver imóveis"),
		CTALink:         in.Config.String("ctaLink", "/imoveis"),
	}, nil
}

// SearchBarProps search-bar
type SearchBarProps struct {
	Placeholder string   `json:"placeholder"`
	Purposes    []string `json:"purposes"`
	Types       []string `json:"types"`
	Action      string   `json:"action"`
}

func renderSearchBar(_ context.Context, in Input) (interface{}, error) {
	purposes := in.Config.Strings("purposes")
	if len(purposes) == 0 {
		purposes = []string{"venda", "aluguel"}
	}
	types := in.Config.Strings("types")
	if len(types) == 0 {
		types = []string{"casa", "apartamento", "terreno", "comercial"}
	}
	return SearchBarProps{
		Placeholder: in.Config.String("placeholder", "Busque por cidade, bairro ou código"),
		Purposes:    purposes,
		Types:       types,
		Action:      in.Config.String("action", "/imoveis"),
	}, nil
}

// PropertyCard 列表中的房源
type PropertyCard struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price,omitempty"`
	Purpose      string  `json:"purpose"`
	Type         string  `json:"type"`
	City         string  `json:"city"`
	Neighborhood string  `json:"neighborhood"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	Area         float64 `json:"area"`
	CoverImage   string  `json:"coverImage"`
	Href         string  `json:"href"`
}

func card(p model.Property, showPrice bool) PropertyCard {
	c := PropertyCard{
		ID:           p.ID,
		Title:        p.Title,
		Purpose:      p.Purpose,
		Type:         p.Type,
		City:         p.City,
		Neighborhood: p.Neighborhood,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Area:         p.Area,
		CoverImage:   p.CoverImage,
		Href:         "/imovel/" + strconv.Itoa(p.ID),
	}
	if showPrice {
		c.Price = p.Price
	}
	return c
}

// PropertyGridProps property-grid
type PropertyGridProps struct {
	Title   string         `json:"title"`
	Columns int            `json:"columns"`
	Items   []PropertyCard `json:"items"`
	Total   int64          `json:"total"`
	MoreURL string         `json:"moreUrl,omitempty"`
}

type propertyGrid struct {
	source PropertySource
}

func (g *propertyGrid) Render(ctx context.Context, in Input) (interface{}, error) {
	if g.source == nil {
		return nil, errors.New("no property source")
	}
	limit := in.Config.Int("limit", 6)
	if limit <= 0 || limit > 48 {
		limit = 6
	}
	q := siteclient.PropertyQuery{
		Purpose:  in.Config.String("purpose", ""),
		Type:     in.Config.String("type", ""),
		City:     in.Config.String("city", ""),
		PageSize: limit,
		Page:     1,
	}
	if in.Config.Bool("featuredOnly", false) {
		featured := true
		q.Featured = &featured
	}

	page, err := g.source.ListProperties(ctx, in.Site.Company.ID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	showPrice := in.Config.Bool("showPrice", true)
	items := make([]PropertyCard, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, card(p, showPrice))
	}
	out := PropertyGridProps{
		Title:   in.Config.String("title", "Imóveis em destaque"),
		Columns: in.Config.Int("columns", 3),
		Items:   items,
		Total:   page.Total,
	}
	if in.Config.Bool("showMore", true) && page.Total > int64(len(items)) {
		out.MoreURL = in.Config.String("moreUrl", "/imoveis")
	}
	return out, nil
}

// PropertyDetailProps property-detail
type PropertyDetailProps struct {
	NotFound        bool            `json:"notFound"`
	Property        *model.Property `json:"property,omitempty"`
	ShowContactForm bool            `json:"showContactForm"`
	WhatsappURL     string          `json:"whatsappUrl,omitempty"`
}

type propertyDetail struct {
	source PropertySource
}

func (pd *propertyDetail) Render(ctx context.Context, in Input) (interface{}, error) {
	if pd.source == nil {
		return nil, errors.New("no property source")
	}
	raw := in.Site.Params["id"]
	if raw == "" {
		raw = in.Config.String("propertyId", "")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return PropertyDetailProps{NotFound: true}, nil
	}

	p, err := pd.source.GetProperty(ctx, in.Site.Company.ID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load property %d: %w", id, err)
	}
	if p == nil {
		return PropertyDetailProps{NotFound: true}, nil
	}

	out := PropertyDetailProps{
		Property:        p,
		ShowContactForm: in.Config.Bool("showContactForm", true),
	}
	if number := onlyDigits(in.Site.Visual.Contact.Whatsapp); number != "" {
		out.WhatsappURL = whatsappURL(number, fmt.Sprintf("Olá! Tenho interesse no imóvel %s (cód. %d).", p.Title, p.ID))
	}
	return out, nil
}

// AboutProps about
type AboutProps struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
	Creci   string `json:"creci,omitempty"`
}

func renderAbout(_ context.Context, in Input) (interface{}, error) {
	a := AboutProps{
		Title:   in.Config.String("title", "Sobre nós"),
		Content: in.Config.String("content", in.Site.Company.Description),
		Image:   in.Config.String("image", ""),
	}
	if in.Config.Bool("showCreci", true) {
		a.Creci = in.Site.Visual.Contact.Creci
	}
	return a, nil
}

// TextProps text
type TextProps struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Align   string `json:"align"`
}

func renderText(_ context.Context, in Input) (interface{}, error) {
	align := in.Config.String("align", "left")
	switch align {
	case "left", "center", "right", "justify":
	default:
		align = "left"
	}
	return TextProps{
		Title:   in.Config.String("title", ""),
		Content: in.Config.String("content", ""),
		Align:   align,
	}, nil
}

// ContactFormProps contact-form
type ContactFormProps struct {
	Title          string   `json:"title"`
	Fields         []string `json:"fields"`
	SubmitText     string   `json:"submitText"`
	SuccessMessage string   `json:"successMessage"`
	Recipient      string   `json:"recipient"`
}

func renderContactForm(_ context.Context, in Input) (interface{}, error) {
	fields := in.Config.Strings("fields")
	if len(fields) == 0 {
		fields = []string{"name", "email", "phone", "message"}
	}
	return ContactFormProps{
		Title:          in.Config.String("title", "Entre em contato"),
		Fields:         fields,
		SubmitText:     in.Config.String("submitText", "Enviar"),
		SuccessMessage: in.Config.String("successMessage", "Mensagem enviada! Retornaremos em breve."),
		Recipient:      in.Site.Visual.Contact.Email,
	}, nil
}

// ContactInfoProps contact-info
type ContactInfoProps struct {
	Title         string `json:"title"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Whatsapp      string `json:"whatsapp"`
	Address       string `json:"address"`
	BusinessHours any    `json:"businessHours,omitempty"`
	ShowMap       bool   `json:"showMap"`
}

func renderContactInfo(_ context.Context, in Input) (interface{}, error) {
	c := in.Site.Visual.Contact
	out := ContactInfoProps{
		Title:    in.Config.String("title", "Contato"),
		Phone:    c.Phone,
		Email:    c.Email,
		Whatsapp: c.Whatsapp,
		Address:  joinNonEmpty(", ", c.Address, c.City, c.State),
		ShowMap:  in.Config.Bool("showMap", false),
	}
	if in.Config.Bool("showBusinessHours", true) {
		out.BusinessHours = in.Site.Visual.BusinessHours
	}
	return out, nil
}

// Testimonial 一条评价
type Testimonial struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Photo  string `json:"photo,omitempty"`
}

// TestimonialsProps testimonials
type TestimonialsProps struct {
	Title  string        `json:"title"`
	Layout string        `json:"layout"`
	Items  []Testimonial `json:"items"`
}

func renderTestimonials(_ context.Context, in Input) (interface{}, error) {
	items := make([]Testimonial, 0)
	for _, it := range in.Config.Items("items") {
		text := it.String("text", "")
		if text == "" {
			continue
		}
		rating := it.Int("rating", 5)
		if rating < 1 || rating > 5 {
			rating = 5
		}
		items = append(items, Testimonial{
			Name:   it.String("name", "Cliente"),
			Text:   text,
			Rating: rating,
			Photo:  it.String("photo", ""),
		})
	}
	return TestimonialsProps{
		Title:  in.Config.String("title", "O que dizem nossos clientes"),
		Layout: in.Config.String("layout", "carousel"),
		Items:  items,
	}, nil
}

// CTAProps cta
type CTAProps struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	ButtonText string `json:"buttonText"`
	ButtonLink string `json:"buttonLink"`
}

func renderCTA(_ context.Context, in Input) (interface{}, error) {
	return CTAProps{
		Title:      in.Config.String("title", "Quer vender ou alugar seu imóvel?"),
		Text:       in.Config.String("text", "Nossa equipe cuida de tudo para você."),
		ButtonText: in.Config.String("buttonText", "Fale conosco"),
		ButtonLink: in.Config.String("buttonLink", "/contato"),
	}, nil
}

// GalleryProps gallery
type GalleryProps struct {
	Title   string   `json:"title,omitempty"`
	Images  []string `json:"images"`
	Columns int      `json:"columns"`
}

func renderGallery(_ context.Context, in Input) (interface{}, error) {
	images := in.Config.Strings("images")
	if images == nil {
		images = []string{}
	}
	columns := in.Config.Int("columns", 3)
	if columns < 1 || columns > 6 {
		columns = 3
	}
	return GalleryProps{
		Title:   in.Config.String("title", ""),
		Images:  images,
		Columns: columns,
	}, nil
}

// WhatsappButtonProps whatsapp-button
type WhatsappButtonProps struct {
	URL      string `json:"url"`
	Position string `json:"position"`
	Label    string `json:"label,omitempty"`
}

func renderWhatsappButton(_ context.Context, in Input) (interface{}, error) {
	number := onlyDigits(in.Config.String("number", in.Site.Visual.Contact.Whatsapp))
	if number == "" {
		return nil, errors.New("no whatsapp number")
	}
	return WhatsappButtonProps{
		URL:      whatsappURL(number, in.Config.String("message", "Olá! Vim pelo site.")),
		Position: in.Config.String("position", "bottom-right"),
		Label:    in.Config.String("label", ""),
	}, nil
}

// FooterProps footer
type FooterProps struct {
	CompanyName   string `json:"companyName"`
	Links         []Link `json:"links"`
	Contact       any    `json:"contact"`
	Social        any    `json:"social,omitempty"`
	BusinessHours any    `json:"businessHours,omitempty"`
	Copyright     string `json:"copyright"`
	Creci         string `json:"creci,omitempty"`
}

func renderFooter(_ context.Context, in Input) (interface{}, error) {
	name := companyName(in.Site)
	out := FooterProps{
		CompanyName: name,
		Links:       navLinks(in.Site),
		Contact:     in.Site.Visual.Contact,
		Copyright:   in.Config.String("copyright", "© "+name+". Todos os direitos reservados."),
		Creci:       in.Site.Visual.Contact.Creci,
	}
	if in.Config.Bool("showSocial", true) {
		out.Social = in.Site.Visual.Social
	}
	if in.Config.Bool("showBusinessHours", false) {
		out.BusinessHours = in.Site.Visual.BusinessHours
	}
	return out, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func whatsappURL(number, message string) string {
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(message)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
