package mailchimp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Audience is a Mailchimp list.
type Audience struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

func (c *Client) GetAudiences(ctx context.Context) ([]Audience, error) {
	var out struct {
		Lists []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Stats struct {
				MemberCount int `json:"member_count"`
			} `json:"stats"`
		} `json:"lists"`
	}
	if err := c.do(ctx, http.MethodGet, "/lists?count=1000", nil, &out); err != nil {
		return nil, err
	}
	audiences := make([]Audience, len(out.Lists))
	for i, list := range out.Lists {
		audiences[i] = Audience{ID: list.ID, Name: list.Name, MemberCount: list.Stats.MemberCount}
	}
	return audiences, nil
}

// GetTemplateName fetches a template's title, verifying it exists.
func (c *Client) GetTemplateName(ctx context.Context, templateID string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	path := "/templates/" + url.PathEscape(templateID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

// EnsureStaticSegment finds the named static segment in the audience or
// creates it, and returns its id.
func (c *Client) EnsureStaticSegment(ctx context.Context, audienceID, name string) (int, error) {
	var segments struct {
		Segments []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"segments"`
	}
	listPath := fmt.Sprintf("/lists/%s/segments?type=static&count=1000", url.PathEscape(audienceID))
	if err := c.do(ctx, http.MethodGet, listPath, nil, &segments); err != nil {
		return 0, err
	}
	for _, segment := range segments.Segments {
		if segment.Name == name {
			return segment.ID, nil
		}
	}

	var created struct {
		ID int `json:"id"`
	}
	body := map[string]interface{}{
		"name":           name,
		"static_segment": []string{},
	}
	createPath := fmt.Sprintf("/lists/%s/segments", url.PathEscape(audienceID))
	if err := c.do(ctx, http.MethodPost, createPath, body, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// setStaticSegmentMembers replaces the segment's member list. Emails not
// subscribed to the audience are silently dropped by Mailchimp.
func (c *Client) setStaticSegmentMembers(ctx context.Context, audienceID string, segmentID int, emails []string) error {
	path := fmt.Sprintf("/lists/%s/segments/%d", url.PathEscape(audienceID), segmentID)
	body := map[string]interface{}{
		"static_segment": emails,
	}
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

type campaignSettings struct {
	SubjectLine string `json:"subject_line"`
	Title       string `json:"title"`
	TemplateID  int    `json:"template_id,omitempty"`
}

func (c *Client) createAndSendCampaign(ctx context.Context, recipients map[string]interface{}, templateID, subject string) (string, error) {
	templateNum, err := strconv.Atoi(templateID)
	if err != nil {
		return "", fmt.Errorf("mailchimp: invalid template id %q", templateID)
	}
	var campaign struct {
		ID string `json:"id"`
	}
	body := map[string]interface{}{
		"type":       "regular",
		"recipients": recipients,
		"settings": campaignSettings{
			SubjectLine: subject,
			Title:       subject,
			TemplateID:  templateNum,
		},
	}
	if err := c.do(ctx, http.MethodPost, "/campaigns", body, &campaign); err != nil {
		return "", err
	}
	sendPath := fmt.Sprintf("/campaigns/%s/actions/send", url.PathEscape(campaign.ID))
	if err := c.do(ctx, http.MethodPost, sendPath, nil, nil); err != nil {
		return "", err
	}
	return campaign.ID, nil
}

// SendCampaignToEmails loads the given emails into the working segment
// and sends a campaign built from templateID to that segment.
func (c *Client) SendCampaignToEmails(ctx context.Context, audienceID string, templateID, subject string, segmentID int, emails []string) (string, error) {
	if err := c.setStaticSegmentMembers(ctx, audienceID, segmentID, emails); err != nil {
		return "", err
	}
	recipients := map[string]interface{}{
		"list_id": audienceID,
		"segment_opts": map[string]interface{}{
			"saved_segment_id": segmentID,
		},
	}
	return c.createAndSendCampaign(ctx, recipients, templateID, subject)
}

// SendCampaignToSegment sends a campaign to an existing segment, e.g. a
// tag segment.
func (c *Client) SendCampaignToSegment(ctx context.Context, audienceID string, templateID, subject string, segmentID int) (string, error) {
	recipients := map[string]interface{}{
		"list_id": audienceID,
		"segment_opts": map[string]interface{}{
			"saved_segment_id": segmentID,
		},
	}
	return c.createAndSendCampaign(ctx, recipients, templateID, subject)
}

// SendCampaignToAudience sends a campaign to the whole audience.
func (c *Client) SendCampaignToAudience(ctx context.Context, audienceID string, templateID, subject string) (string, error) {
	recipients := map[string]interface{}{
		"list_id": audienceID,
	}
	return c.createAndSendCampaign(ctx, recipients, templateID, subject)
}

// FindSegmentByName returns the id of the segment with the given name,
// static or tag-backed.
func (c *Client) FindSegmentByName(ctx context.Context, audienceID, name string) (int, error) {
	var segments struct {
		Segments []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"segments"`
	}
	path := fmt.Sprintf("/lists/%s/segments?count=1000", url.PathEscape(audienceID))
	if err := c.do(ctx, http.MethodGet, path, nil, &segments); err != nil {
		return 0, err
	}
	for _, segment := range segments.Segments {
		if segment.Name == name {
			return segment.ID, nil
		}
	}
	return 0, fmt.Errorf("mailchimp: segment %q not found", name)
}
