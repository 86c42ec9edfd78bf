package browser

// JavaScript snippets evaluated in the page. Each is an IIFE returning a
// JSON-serializable value so chromedp.Evaluate can unmarshal it directly.

// pageStructureJS extracts only interactive elements, capped per category
// to keep the result inside LLM token budgets.
const pageStructureJS = `(() => {
	const results = {
		url: window.location.href,
		title: document.title,
		inputs: [],
		buttons: [],
		links: [],
		selects: []
	};

	document.querySelectorAll('input:not([type="hidden"]), textarea').forEach((el, i) => {
		if (i >= 20) return;
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) return;
		results.inputs.push({
			selector: el.id ? '#' + el.id : (el.name ? '[name="' + el.name + '"]' : 'input[type="' + (el.type || 'text') + '"]'),
			type: el.type || 'text',
			placeholder: el.placeholder || '',
			value: (el.value || '').slice(0, 30),
			id: el.id || '',
			name: el.name || ''
		});
	});

	document.querySelectorAll('button, input[type="submit"], input[type="button"], [role="button"]').forEach((el, i) => {
		if (i >= 20) return;
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) return;
		const text = (el.innerText || el.value || '').slice(0, 50);
		if (!text) return;
		results.buttons.push({
			selector: el.id ? '#' + el.id : (el.className ? '.' + el.className.split(' ')[0] : 'button'),
			text: text,
			id: el.id || ''
		});
	});

	document.querySelectorAll('a[href]').forEach((el, i) => {
		if (i >= 15) return;
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) return;
		const text = (el.innerText || el.title || '').slice(0, 40);
		if (!text || text.length < 2) return;
		results.links.push({
			text: text,
			href: (el.href || '').slice(0, 100)
		});
	});

	document.querySelectorAll('select').forEach((el, i) => {
		if (i >= 10) return;
		results.selects.push({
			selector: el.id ? '#' + el.id : (el.name ? '[name="' + el.name + '"]' : 'select'),
			id: el.id || '',
			name: el.name || ''
		});
	});

	return results;
})()`

const allLinksJS = `(() => {
	return Array.from(document.querySelectorAll('a[href]')).map(a => ({
		href: a.href,
		text: (a.innerText || '').slice(0, 100),
		title: a.title || ''
	})).slice(0, 100);
})()`

const allInputsJS = `(() => {
	return Array.from(document.querySelectorAll('input, textarea, select')).map(el => ({
		tag: el.tagName.toLowerCase(),
		type: el.type || '',
		name: el.name || '',
		id: el.id || '',
		placeholder: el.placeholder || '',
		value: (el.value || '').slice(0, 50)
	})).slice(0, 50);
})()`

const allButtonsJS = `(() => {
	const buttons = document.querySelectorAll('button, input[type="submit"], input[type="button"], [role="button"]');
	return Array.from(buttons).map(btn => ({
		tag: btn.tagName.toLowerCase(),
		text: (btn.innerText || btn.value || '').slice(0, 100),
		id: btn.id || '',
		class: (btn.className ? btn.className.split(' ').slice(0, 3).join(' ') : '')
	})).slice(0, 50);
})()`

// removeOverlaysJS hides backdrop elements, clicks close buttons inside
// aria-modal dialogs and restores body scrolling.
const removeOverlaysJS = `(() => {
	const overlaySelectors = [
		'.modal-backdrop',
		'.overlay',
		'.popup-overlay',
		'[class*="backdrop"]',
		'[class*="Backdrop"]',
		'[class*="Overlay"]',
		'[class*="modal-bg"]',
		'[class*="modal-mask"]',
		'[role="presentation"]'
	];
	overlaySelectors.forEach(sel => {
		document.querySelectorAll(sel).forEach(el => {
			if (el.style) {
				el.style.display = 'none';
				el.style.visibility = 'hidden';
				el.style.opacity = '0';
				el.style.pointerEvents = 'none';
			}
		});
	});

	document.querySelectorAll('[aria-modal="true"]').forEach(modal => {
		const closeBtn = modal.querySelector('[aria-label*="close"], [aria-label*="Close"], button[class*="close"]');
		if (closeBtn) closeBtn.click();
	});

	document.body.style.overflow = 'auto';
	document.body.style.position = '';
	document.documentElement.style.overflow = 'auto';
	return true;
})()`

// extractModalJS finds the first truly visible modal and pulls out its
// title, text, buttons, links, inputs and images.
const extractModalJS = `(() => {
	const modalSelectors = [
		'[role="dialog"]',
		'[role="alertdialog"]',
		'[aria-modal="true"]',
		'.modal:not([style*="display: none"])',
		'.modal.show',
		'.modal.active',
		'.modal.open',
		'[class*="modal"]:not([style*="display: none"])',
		'[class*="Modal"]:not([style*="display: none"])',
		'.popup:not([style*="display: none"])',
		'[class*="popup"]:not([style*="display: none"])',
		'[class*="Popup"]:not([style*="display: none"])',
		'.dialog:not([style*="display: none"])',
		'[class*="dialog"]:not([style*="display: none"])',
		'[class*="Dialog"]:not([style*="display: none"])',
		'.overlay-content',
		'[class*="drawer"]:not([style*="display: none"])',
		'[class*="Drawer"]:not([style*="display: none"])'
	];

	let modal = null;
	for (const sel of modalSelectors) {
		const candidates = document.querySelectorAll(sel);
		for (const el of candidates) {
			const rect = el.getBoundingClientRect();
			const style = window.getComputedStyle(el);
			if (rect.width > 0 && rect.height > 0 &&
				style.display !== 'none' &&
				style.visibility !== 'hidden' &&
				style.opacity !== '0') {
				modal = el;
				break;
			}
		}
		if (modal) break;
	}

	if (!modal) {
		return { found: false, message: "No visible modal found" };
	}

	const result = {
		found: true,
		title: '',
		text: '',
		buttons: [],
		links: [],
		inputs: [],
		images: []
	};

	const titleEl = modal.querySelector('h1, h2, h3, [class*="title"], [class*="header"] h1, [class*="header"] h2');
	if (titleEl) {
		result.title = (titleEl.innerText || '').trim();
	}

	result.text = (modal.innerText || '').trim().slice(0, 2000);

	modal.querySelectorAll('button, input[type="submit"], input[type="button"], [role="button"]').forEach((btn, i) => {
		if (i >= 10) return;
		const text = (btn.innerText || btn.value || '').trim();
		if (text) {
			result.buttons.push({
				text: text.slice(0, 50),
				id: btn.id || '',
				class: (btn.className ? btn.className.split(' ').slice(0, 2).join(' ') : '')
			});
		}
	});

	modal.querySelectorAll('a[href]').forEach((a, i) => {
		if (i >= 10) return;
		result.links.push({
			text: (a.innerText || '').trim().slice(0, 50),
			href: (a.href || '').slice(0, 100)
		});
	});

	modal.querySelectorAll('input:not([type="hidden"]), textarea, select').forEach((input, i) => {
		if (i >= 10) return;
		result.inputs.push({
			type: input.type || input.tagName.toLowerCase(),
			name: input.name || '',
			id: input.id || '',
			placeholder: input.placeholder || '',
			value: (input.value || '').slice(0, 50)
		});
	});

	modal.querySelectorAll('img').forEach((img, i) => {
		if (i >= 5) return;
		result.images.push({
			src: (img.src || '').slice(0, 150),
			alt: img.alt || ''
		});
	});

	return result;
})()`
