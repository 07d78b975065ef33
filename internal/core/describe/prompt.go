package describe

// AnalysisPrompt は画像内のファッションアイテムを構造化JSONで列挙させるプロンプト
const AnalysisPrompt = `Analyze this image and identify all fashion items (clothing, shoes, accessories, bags, jewelry, etc.).

For each item you identify, provide:
1. Item type (e.g., dress, jeans, sneakers, handbag, sunglasses)
2. Color(s) - be specific
3. Style/pattern (e.g., floral print, solid, striped, distressed)
4. Material if visible (e.g., denim, leather, cotton)
5. Key features (e.g., V-neck, high-waisted, platform sole)
6. Search keywords - the best keywords to use when searching for similar items online

Return your response as a JSON object with this structure:
{
  "items": [
    {
      "type": "item type",
      "color": "color description",
      "style": "style description",
      "material": "material if visible",
      "features": ["feature1", "feature2"],
      "search_keywords": "optimized search query"
    }
  ],
  "overall_style": "brief description of the overall look/aesthetic",
  "occasion": "suggested occasion for this outfit"
}

Be thorough and identify as many items as possible.`
